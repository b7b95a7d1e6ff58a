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

package collector

import (
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/gpmon/pkg/collector/device"
	"github.com/NVIDIA/gpmon/pkg/collector/gpm"
	"github.com/NVIDIA/gpmon/pkg/gpu"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateGPMCollector() Collector
	CreateDeviceCollector() Collector
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	nvml         gpu.Interface
	interval     time.Duration
	metricIDs    []nvml.GpmMetricId
	metricFilter []string
}

// Option configures a DefaultFactory.
type Option func(*DefaultFactory)

// WithNVML overrides the NVML library binding.
func WithNVML(lib gpu.Interface) Option {
	return func(f *DefaultFactory) {
		f.nvml = lib
	}
}

// WithSampleInterval sets the delay between the two GPM counter snapshots.
func WithSampleInterval(d time.Duration) Option {
	return func(f *DefaultFactory) {
		f.interval = d
	}
}

// WithMetricIDs limits GPM sampling to the given metric identifiers.
func WithMetricIDs(ids []nvml.GpmMetricId) Option {
	return func(f *DefaultFactory) {
		f.metricIDs = ids
	}
}

// WithMetricFilter keeps only readings whose metric names match the given
// wildcard patterns.
func WithMetricFilter(patterns []string) Option {
	return func(f *DefaultFactory) {
		f.metricFilter = patterns
	}
}

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory(opts ...Option) *DefaultFactory {
	f := &DefaultFactory{
		nvml:     gpu.New(),
		interval: gpu.DefaultSampleInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateGPMCollector creates a GPM utilization collector.
func (f *DefaultFactory) CreateGPMCollector() Collector {
	return &gpm.Collector{
		NVML:      f.nvml,
		Interval:  f.interval,
		MetricIDs: f.metricIDs,
		Filter:    f.metricFilter,
	}
}

// CreateDeviceCollector creates a device inventory collector.
func (f *DefaultFactory) CreateDeviceCollector() Collector {
	return &device.Collector{
		NVML: f.nvml,
	}
}
