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

// Package sampler orchestrates GPU metric collection into reports.
//
// NodeSampler runs the GPM utilization collector and the device inventory
// collector in parallel, stamps the result with node metadata (hostname,
// session ID, timestamp, version), and hands the report to a serializer.
// Measurements are ordered GPM first so output is stable regardless of
// which collector finishes first.
//
// A Report carries a Kubernetes-style header (Kind "Report", APIVersion
// "gpmon.nvidia.com/v1") so consumers can route and validate documents
// without inspecting their payload.
//
// Prometheus metrics track collection runs:
//
//   - gpmon_report_collection_duration_seconds
//   - gpmon_report_collection_total{status}
//   - gpmon_report_collector_duration_seconds{collector}
//   - gpmon_report_measurements
//
// # Usage
//
//	ns := &sampler.NodeSampler{
//	    Version:    version,
//	    Factory:    collector.NewDefaultFactory(),
//	    Serializer: serializer.NewStdoutWriter(serializer.FormatYAML),
//	}
//
//	if err := ns.Measure(ctx); err != nil {
//	    return err
//	}
package sampler
