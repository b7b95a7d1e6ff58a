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

// Package measurement provides types and utilities for collecting and filtering
// GPU measurements.
//
// # Core Types
//
// The package defines a hierarchical structure for measurements:
//   - Type: Enum identifying the measurement source (GPM, Device)
//   - Measurement: Contains a Type and a slice of Subtypes
//   - Subtype: Named collection of key-value data; for GPM measurements each
//     subtype is one sampled target ("gpu0", "gpu0/gi1/ci0")
//   - Reading: Interface for type-safe scalar values (int, float64, string, bool, etc.)
//
// # Creating Measurements
//
// Use the fluent builders to assemble measurements:
//
//	m := measurement.NewMeasurement(measurement.TypeGPM).
//		WithSubtypeBuilder(measurement.NewSubtypeBuilder("gpu0").
//			SetFloat64("sm_util", 42.5).
//			SetContext(measurement.KeyGPUUUID, uuid)).
//		Build()
//
// # Filtering
//
// FilterIn and FilterOut select readings by key using wildcard patterns
// ("sm_*", "*_tensor_util", "*pcie*"), which backs metric selection on the
// command line.
package measurement
