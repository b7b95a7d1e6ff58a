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

// Package collector provides interfaces and implementations for collecting GPU metrics.
//
// # Core Interface
//
// The Collector interface defines a single method for gathering data:
//
//	type Collector interface {
//	    Collect(ctx context.Context) (*measurement.Measurement, error)
//	}
//
// All collectors support context-based cancellation for graceful shutdown and timeout handling.
//
// # Factory Pattern
//
// The Factory interface enables dependency injection and testing by abstracting collector creation:
//
//	type Factory interface {
//	    CreateGPMCollector() Collector
//	    CreateDeviceCollector() Collector
//	}
//
// The DefaultFactory provides production implementations with configurable options:
//
//	factory := collector.NewDefaultFactory(
//	    collector.WithSampleInterval(150*time.Millisecond),
//	    collector.WithMetricFilter([]string{"sm_*", "dram_bw_util"}),
//	)
//
// # Available Collectors
//
// GPM (gpm): Samples utilization metrics via the GPU Performance Metrics API.
// Each eligible target (a whole GPU, or each MIG slice when MIG is in use)
// gets two time-separated counter snapshots, and the derived utilization
// values become one subtype per target.
//
// Device (device): Gathers the GPU inventory of the node including driver,
// NVML, and CUDA versions plus model, memory, MIG mode, and GPM support
// per GPU.
//
// # Error Handling
//
// Both collectors degrade gracefully when NVML is unavailable: they return a
// measurement with gpu-count 0 instead of an error. Individual targets that
// fail to sample are skipped with a warning so one broken device does not
// abort the run.
package collector
