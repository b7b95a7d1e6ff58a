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

package sampler

import (
	"context"

	"github.com/NVIDIA/gpmon/pkg/header"
	"github.com/NVIDIA/gpmon/pkg/measurement"
)

// FullAPIVersion is the schema version stamped on every report.
const FullAPIVersion = "gpmon.nvidia.com/v1"

// Sampler defines the interface for collecting GPU metric reports.
// Implementations gather measurements from the node's GPUs and serialize
// the results.
type Sampler interface {
	Measure(ctx context.Context) error
}

// NewReport creates a new Report instance with an initialized Measurements slice.
func NewReport() *Report {
	return &Report{
		Measurements: make([]*measurement.Measurement, 0),
	}
}

// Report represents one collected set of GPU metrics from a node.
// It contains metadata plus the GPM utilization and device inventory
// measurements.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	// Measurements contains the collected measurements.
	Measurements []*measurement.Measurement `json:"measurements" yaml:"measurements"`
}
