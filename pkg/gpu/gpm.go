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

package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	// DefaultSampleInterval is the delay between the two GPM samples.
	// NVML requires the samples to be more than 100ms apart.
	DefaultSampleInterval = 150 * time.Millisecond

	// MinSampleInterval is the hard lower bound enforced on the interval.
	MinSampleInterval = 100 * time.Millisecond
)

// ErrNotSupported indicates the device does not support GPM. Callers skip
// such targets rather than failing the run.
var ErrNotSupported = errors.New("GPM not supported on this device")

// SampleTarget takes two time-separated GPM samples on the target and
// returns the derived metric values in the order of ids. The sleep between
// samples honors context cancellation. Sample buffers are always freed.
func SampleTarget(ctx context.Context, lib Interface, t Target, interval time.Duration, ids []nvml.GpmMetricId) ([]MetricValue, error) {
	if interval <= MinSampleInterval {
		return nil, fmt.Errorf("sample interval %v must be greater than %v", interval, MinSampleInterval)
	}
	if len(ids) == 0 {
		ids = DefaultMetricIDs
	}

	support, ret := t.Parent.GpmQueryDeviceSupport()
	if ret != nvml.SUCCESS {
		return nil, errorOf("query GPM support", ret)
	}
	if support.IsSupportedDevice == 0 {
		return nil, ErrNotSupported
	}

	sample1, ret := lib.GpmSampleAlloc()
	if ret != nvml.SUCCESS {
		return nil, errorOf("allocate sample buffer", ret)
	}
	defer sample1.Free()

	sample2, ret := lib.GpmSampleAlloc()
	if ret != nvml.SUCCESS {
		return nil, errorOf("allocate sample buffer", ret)
	}
	defer sample2.Free()

	if err := sampleGet(t, sample1); err != nil {
		return nil, fmt.Errorf("first sample on %s: %w", t, err)
	}

	if err := sleep(ctx, interval); err != nil {
		return nil, err
	}

	if err := sampleGet(t, sample2); err != nil {
		return nil, fmt.Errorf("second sample on %s: %w", t, err)
	}

	values, ret := lib.GpmMetricsGet(sample1, sample2, ids)
	if ret != nvml.SUCCESS {
		return nil, errorOf("compute metrics", ret)
	}

	for _, v := range values {
		if !v.OK() {
			slog.Debug("metric not computed",
				"target", t.String(),
				"metric", MetricName(v.ID),
				"status", nvml.ErrorString(v.Status))
		}
	}

	return values, nil
}

func sampleGet(t Target, s Sample) error {
	var ret nvml.Return
	if t.MIG {
		ret = t.Parent.GpmMigSampleGet(t.GPUInstanceID, s)
	} else {
		ret = t.Parent.GpmSampleGet(s)
	}
	return errorOf("get sample", ret)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
