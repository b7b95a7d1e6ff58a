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

package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/gpmon/pkg/gpu"
	"github.com/NVIDIA/gpmon/pkg/measurement"
	"github.com/NVIDIA/gpmon/pkg/version"
)

const subtypeSystem = "system"

// minGPMDriver is the first driver branch shipping the GPM query API.
var minGPMDriver = version.Version{Major: 520, Precision: 1}

// Collector gathers the GPU inventory of the node: driver and library
// versions plus one subtype per physical GPU.
type Collector struct {
	// NVML is the library binding. Defaults to the real NVML library.
	NVML gpu.Interface
}

// Collect enumerates the node's GPUs and returns a device measurement.
// When NVML is unavailable a measurement with gpu-count 0 is returned
// instead of an error so that callers can degrade gracefully.
func (c *Collector) Collect(ctx context.Context) (*measurement.Measurement, error) {
	lib := c.NVML
	if lib == nil {
		lib = gpu.New()
	}

	if ret := lib.Init(); ret != nvml.SUCCESS {
		slog.Warn("nvml unavailable, skipping device collection", "reason", nvml.ErrorString(ret))
		return noDevicesMeasurement(), nil
	}
	defer func() {
		if ret := lib.Shutdown(); ret != nvml.SUCCESS {
			slog.Warn("nvml shutdown failed", "reason", nvml.ErrorString(ret))
		}
	}()

	infos, err := gpu.EnumerateDevices(ctx, lib)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	builder := measurement.NewMeasurement(measurement.TypeDevice).
		WithSubtypeBuilder(systemSubtype(lib, len(infos)))

	for _, info := range infos {
		builder.WithSubtypeBuilder(
			measurement.NewSubtypeBuilder(fmt.Sprintf("gpu%d", info.Index)).
				SetString(measurement.KeyGPUModel, info.Name).
				SetString(measurement.KeyGPUUUID, info.UUID).
				SetUint64(measurement.KeyGPUMemory, info.MemoryBytes).
				SetBool(measurement.KeyMIGEnabled, info.MIGEnabled).
				SetBool(measurement.KeyGPMSupport, info.GPMSupported))
	}

	return builder.Build(), nil
}

func systemSubtype(lib gpu.Interface, count int) *measurement.SubtypeBuilder {
	sb := measurement.NewSubtypeBuilder(subtypeSystem).
		SetInt(measurement.KeyGPUCount, count)

	if v, ret := lib.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		sb.SetString(measurement.KeyDriverVersion, v)
		if parsed, err := version.ParseVersion(v); err == nil {
			ready := parsed.EqualsOrNewer(minGPMDriver)
			sb.SetBool(measurement.KeyGPMDriver, ready)
			if !ready {
				slog.Warn("driver predates gpm support", "driver", v, "required", minGPMDriver.String())
			}
		}
	}
	if v, ret := lib.SystemGetNVMLVersion(); ret == nvml.SUCCESS {
		sb.SetString(measurement.KeyNVMLVersion, v)
	}
	if v, ret := lib.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS {
		// NVML reports the CUDA driver version as major*1000 + minor*10.
		sb.SetString(measurement.KeyCUDAVersion, fmt.Sprintf("%d.%d", v/1000, (v%1000)/10))
	}
	return sb
}

// noDevicesMeasurement is returned when NVML cannot be initialized.
func noDevicesMeasurement() *measurement.Measurement {
	return measurement.NewMeasurement(measurement.TypeDevice).
		WithSubtypeBuilder(measurement.NewSubtypeBuilder(subtypeSystem).
			SetInt(measurement.KeyGPUCount, 0)).
		Build()
}
