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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report collection metrics
	reportCollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gpmon_report_collection_duration_seconds",
			Help:    "Time taken to collect a complete metric report",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	reportCollectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpmon_report_collection_total",
			Help: "Total number of report collection attempts",
		},
		[]string{"status"}, // success or error
	)

	reportCollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpmon_report_collector_duration_seconds",
			Help:    "Time taken by individual collectors",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collector"}, // gpm, device, metadata
	)

	reportMeasurementCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gpmon_report_measurements",
			Help: "Number of measurements in the last collected report",
		},
	)
)
