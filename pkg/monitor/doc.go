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

// Package monitor runs continuous GPU metric collection for long sessions.
//
// Each iteration collects one report, flattens its GPM measurements into CSV
// rows (one per metric per target), and appends them to the configured
// writer. Iterations are paced with a rate limiter rather than a fixed
// sleep, so collection time does not stretch the sampling cadence.
//
// Failed iterations are logged and skipped; the loop only stops early when
// the output itself becomes unwritable. A duration bound or context
// cancellation ends the run normally.
//
// When the process runs as a systemd unit the monitor participates in the
// service lifecycle, sending READY on loop entry, WATCHDOG each successful
// iteration, and STOPPING on exit. Outside systemd these are no-ops.
//
// ServeMetrics optionally exposes the collected Prometheus counters over
// HTTP for scraping during long runs.
package monitor
