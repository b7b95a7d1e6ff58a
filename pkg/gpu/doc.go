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

// Package gpu provides access to NVIDIA GPU Performance Metrics (GPM)
// through NVML.
//
// # Overview
//
// GPM metrics are derived from pairs of counter snapshots: the driver
// computes utilization over the window between two samples taken more than
// 100ms apart. This package wraps the NVML calls involved (device and MIG
// slice enumeration, sample buffer management, the two-sample diff) behind
// small interfaces so the logic is testable without hardware.
//
// # Sampling
//
// Enumerate targets, then sample each:
//
//	lib := gpu.New()
//	if ret := lib.Init(); ret != nvml.SUCCESS {
//	    // NVML not available
//	}
//	defer lib.Shutdown()
//
//	targets, err := gpu.EnumerateTargets(ctx, lib)
//	for _, t := range targets {
//	    values, err := gpu.SampleTarget(ctx, lib, t, gpu.DefaultSampleInterval, nil)
//	    // ...
//	}
//
// When any GPU on the node has MIG compute slices, EnumerateTargets returns
// only the slices; otherwise it returns the whole GPUs. MIG slices are
// sampled through the parent device handle using the GPU-instance ID.
//
// # Support
//
// GPM requires Hopper or newer GPUs and a recent driver. Devices that do
// not support GPM are reported via ErrNotSupported and should be skipped,
// not treated as failures.
package gpu
