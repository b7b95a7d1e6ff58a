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

package gpm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/gpmon/pkg/gpu"
	"github.com/NVIDIA/gpmon/pkg/measurement"
)

const subtypeSystem = "system"

// Collector samples GPM utilization metrics from all eligible targets.
// When any MIG slice exists on the node, MIG slices are the targets;
// otherwise whole GPUs are.
type Collector struct {
	// NVML is the library binding. Defaults to the real NVML library.
	NVML gpu.Interface

	// Interval is the delay between the two counter snapshots per target.
	// Must be greater than gpu.MinSampleInterval.
	// Defaults to gpu.DefaultSampleInterval.
	Interval time.Duration

	// MetricIDs limits which GPM metrics are queried.
	// Defaults to gpu.DefaultMetricIDs.
	MetricIDs []nvml.GpmMetricId

	// Filter keeps only readings with matching metric names (wildcards allowed).
	Filter []string
}

// Collect takes two time-separated GPM snapshots per target and returns the
// derived utilization metrics as one subtype per target. Targets that do not
// support GPM or fail to sample are skipped with a warning.
func (c *Collector) Collect(ctx context.Context) (*measurement.Measurement, error) {
	lib := c.NVML
	if lib == nil {
		lib = gpu.New()
	}
	interval := c.Interval
	if interval <= 0 {
		interval = gpu.DefaultSampleInterval
	}
	if interval <= gpu.MinSampleInterval {
		return nil, fmt.Errorf("sample interval %v must be greater than %v", interval, gpu.MinSampleInterval)
	}

	if ret := lib.Init(); ret != nvml.SUCCESS {
		slog.Warn("nvml unavailable, skipping gpm collection", "reason", nvml.ErrorString(ret))
		return noTargetsMeasurement(), nil
	}
	defer func() {
		if ret := lib.Shutdown(); ret != nvml.SUCCESS {
			slog.Warn("nvml shutdown failed", "reason", nvml.ErrorString(ret))
		}
	}()

	targets, err := gpu.EnumerateTargets(ctx, lib)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate targets: %w", err)
	}
	if len(targets) == 0 {
		return noTargetsMeasurement(), nil
	}

	builder := measurement.NewMeasurement(measurement.TypeGPM)
	sampled := 0

	for _, target := range targets {
		values, err := gpu.SampleTarget(ctx, lib, target, interval, c.MetricIDs)
		if err != nil {
			if errors.Is(err, gpu.ErrNotSupported) {
				slog.Warn("target does not support gpm, skipping", "target", target.String())
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("failed to sample target, skipping", "target", target.String(), "error", err)
			continue
		}

		st := c.buildSubtype(target, interval, values)
		if len(st.Data) == 0 {
			slog.Warn("no readings for target after filtering", "target", target.String())
			continue
		}

		builder.WithSubtype(st)
		sampled++
	}

	if sampled == 0 {
		return noTargetsMeasurement(), nil
	}
	return builder.Build(), nil
}

func (c *Collector) buildSubtype(target gpu.Target, interval time.Duration, values []gpu.MetricValue) measurement.Subtype {
	sb := measurement.NewSubtypeBuilder(target.String()).
		SetContext(measurement.KeyGPUUUID, target.UUID).
		SetContext(measurement.KeySampleInterval, interval.String())
	if target.Name != "" {
		sb.SetContext(measurement.KeyGPUModel, target.Name)
	}
	if target.MIG {
		sb.SetContext(measurement.KeyGPUInstance, strconv.Itoa(target.GPUInstanceID))
		sb.SetContext(measurement.KeyComputeInstance, strconv.Itoa(target.ComputeInstanceID))
	}

	for _, v := range values {
		if !v.OK() {
			slog.Debug("metric not available",
				"target", target.String(),
				"metric", gpu.MetricName(v.ID),
				"reason", nvml.ErrorString(v.Status))
			continue
		}
		sb.SetFloat64(gpu.MetricName(v.ID), v.Value)
	}

	st := sb.Build()
	if len(c.Filter) > 0 {
		st.Data = measurement.FilterIn(st.Data, c.Filter)
	}
	return st
}

// noTargetsMeasurement is returned when no GPM-capable target exists so that
// callers still get a well-formed measurement.
func noTargetsMeasurement() *measurement.Measurement {
	return measurement.NewMeasurement(measurement.TypeGPM).
		WithSubtypeBuilder(measurement.NewSubtypeBuilder(subtypeSystem).
			SetInt(measurement.KeyGPUCount, 0)).
		Build()
}
