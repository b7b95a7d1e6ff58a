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

// Package header provides common header types for gpmon data structures.
//
// This package defines the Header type embedded by reports and inventories
// to provide consistent metadata and versioning information following
// Kubernetes-style resource conventions (Kind, APIVersion, Metadata).
//
// # Usage
//
// Initialize a header in place:
//
//	var r Report
//	r.Init(header.KindReport, "gpmon.nvidia.com/v1", version)
//
// Or construct one with options:
//
//	h := header.New(
//	    header.WithKind(header.KindReport),
//	    header.WithAPIVersion("gpmon.nvidia.com/v1"),
//	    header.WithMetadata("source-node", hostname),
//	)
package header
