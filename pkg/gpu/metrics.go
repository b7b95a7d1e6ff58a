// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gpu

import (
	"strconv"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// DefaultMetricIDs is the set of GPM metrics queried per target, in report
// order. See https://docs.nvidia.com/deploy/nvml-api/group__nvmlGpmEnums.html
var DefaultMetricIDs = []nvml.GpmMetricId{
	nvml.GPM_METRIC_GRAPHICS_UTIL,
	nvml.GPM_METRIC_SM_UTIL,
	nvml.GPM_METRIC_SM_OCCUPANCY,
	nvml.GPM_METRIC_INTEGER_UTIL,
	nvml.GPM_METRIC_ANY_TENSOR_UTIL,
	nvml.GPM_METRIC_DFMA_TENSOR_UTIL,
	nvml.GPM_METRIC_HMMA_TENSOR_UTIL,
	nvml.GPM_METRIC_IMMA_TENSOR_UTIL,
	nvml.GPM_METRIC_DRAM_BW_UTIL,
	nvml.GPM_METRIC_FP64_UTIL,
	nvml.GPM_METRIC_FP32_UTIL,
	nvml.GPM_METRIC_FP16_UTIL,
	nvml.GPM_METRIC_PCIE_TX_PER_SEC,
	nvml.GPM_METRIC_PCIE_RX_PER_SEC,
}

type metricSpec struct {
	Name string
	Unit string
}

// Metric names and units are maintained locally rather than read from the
// driver-populated metric info strings. The name set is stable across driver
// versions and local lookup works for metrics the driver failed to compute.
var metricSpecs = map[nvml.GpmMetricId]metricSpec{
	nvml.GPM_METRIC_GRAPHICS_UTIL:    {Name: "graphics_util", Unit: "%"},
	nvml.GPM_METRIC_SM_UTIL:          {Name: "sm_util", Unit: "%"},
	nvml.GPM_METRIC_SM_OCCUPANCY:     {Name: "sm_occupancy", Unit: "%"},
	nvml.GPM_METRIC_INTEGER_UTIL:     {Name: "integer_util", Unit: "%"},
	nvml.GPM_METRIC_ANY_TENSOR_UTIL:  {Name: "any_tensor_util", Unit: "%"},
	nvml.GPM_METRIC_DFMA_TENSOR_UTIL: {Name: "dfma_tensor_util", Unit: "%"},
	nvml.GPM_METRIC_HMMA_TENSOR_UTIL: {Name: "hmma_tensor_util", Unit: "%"},
	nvml.GPM_METRIC_IMMA_TENSOR_UTIL: {Name: "imma_tensor_util", Unit: "%"},
	nvml.GPM_METRIC_DRAM_BW_UTIL:     {Name: "dram_bw_util", Unit: "%"},
	nvml.GPM_METRIC_FP64_UTIL:        {Name: "fp64_util", Unit: "%"},
	nvml.GPM_METRIC_FP32_UTIL:        {Name: "fp32_util", Unit: "%"},
	nvml.GPM_METRIC_FP16_UTIL:        {Name: "fp16_util", Unit: "%"},
	nvml.GPM_METRIC_PCIE_TX_PER_SEC:  {Name: "pcie_tx_per_sec", Unit: "MiB/s"},
	nvml.GPM_METRIC_PCIE_RX_PER_SEC:  {Name: "pcie_rx_per_sec", Unit: "MiB/s"},
}

// MetricName returns the stable metric name for a GPM metric ID.
// Unknown IDs yield "metric_<id>" so rows are never silently dropped.
func MetricName(id nvml.GpmMetricId) string {
	if s, ok := metricSpecs[id]; ok {
		return s.Name
	}
	return unknownMetricName(id)
}

// MetricUnit returns the unit for a GPM metric ID, empty when unknown.
func MetricUnit(id nvml.GpmMetricId) string {
	return metricSpecs[id].Unit
}

func unknownMetricName(id nvml.GpmMetricId) string {
	return "metric_" + strconv.Itoa(int(id))
}
