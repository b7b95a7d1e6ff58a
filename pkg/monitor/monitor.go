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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/gpmon/pkg/defaults"
	"github.com/NVIDIA/gpmon/pkg/gpu"
	"github.com/NVIDIA/gpmon/pkg/measurement"
	"github.com/NVIDIA/gpmon/pkg/sampler"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

// progressEvery controls how often an iteration count is logged.
const progressEvery = 10

// Collector yields one report per monitoring iteration.
// sampler.NodeSampler satisfies this interface.
type Collector interface {
	Collect(ctx context.Context) (*sampler.Report, error)
}

// RowWriter receives the CSV rows produced each iteration.
type RowWriter interface {
	WriteRows(rows []serializer.Row) error
}

// Monitor runs continuous GPU metric collection, appending one CSV row per
// metric per target each iteration.
type Monitor struct {
	// Collector produces the per-iteration report.
	Collector Collector

	// Writer receives the CSV rows. Required.
	Writer RowWriter

	// Interval is the pacing between iterations.
	// Defaults to defaults.MonitorInterval.
	Interval time.Duration

	// Duration bounds the total run time. Zero means run until the
	// context is canceled.
	Duration time.Duration

	// IterationTimeout bounds one collection iteration.
	// Defaults to defaults.MonitorIterationTimeout.
	IterationTimeout time.Duration

	// MetricIDs controls row order within a target.
	// Defaults to gpu.DefaultMetricIDs.
	MetricIDs []nvml.GpmMetricId

	// now is overridable for tests.
	now func() time.Time
}

// Run executes the monitoring loop until the duration elapses or the context
// is canceled. Failed iterations are logged and skipped; only writer errors
// stop the loop early.
func (m *Monitor) Run(ctx context.Context) error {
	if m.Collector == nil {
		return fmt.Errorf("monitor requires a collector")
	}
	if m.Writer == nil {
		return fmt.Errorf("monitor requires a row writer")
	}

	interval := m.Interval
	if interval <= 0 {
		interval = defaults.MonitorInterval
	}
	if interval < gpu.DefaultSampleInterval {
		// Each iteration itself holds the GPM sample window open, so a
		// tighter pacing cannot be honored.
		slog.Warn("interval is shorter than the gpm sample window, iterations will overlap the pacing",
			"interval", interval.String(),
			"sampleWindow", gpu.DefaultSampleInterval.String())
	}

	iterTimeout := m.IterationTimeout
	if iterTimeout <= 0 {
		iterTimeout = defaults.MonitorIterationTimeout
	}

	ids := m.MetricIDs
	if len(ids) == 0 {
		ids = gpu.DefaultMetricIDs
	}

	if m.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Duration)
		defer cancel()
	}

	m.notifyReady()
	defer m.notifyStopping()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	iterations := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		if err := m.iterate(ctx, iterTimeout, ids); err != nil {
			if ctx.Err() != nil {
				break
			}
			if isWriteError(err) {
				monitorIterationsTotal.WithLabelValues("error").Inc()
				return err
			}
			slog.Warn("iteration failed, skipping", "error", err)
			monitorIterationsTotal.WithLabelValues("error").Inc()
			continue
		}

		iterations++
		monitorIterationsTotal.WithLabelValues("success").Inc()
		m.notifyWatchdog()

		if iterations%progressEvery == 0 {
			slog.Info("samples collected", "iterations", iterations)
		}
	}

	slog.Info("monitoring complete", "iterations", iterations)
	return nil
}

func (m *Monitor) iterate(ctx context.Context, timeout time.Duration, ids []nvml.GpmMetricId) error {
	iterCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report, err := m.Collector.Collect(iterCtx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	ts := time.Now().UTC()
	if m.now != nil {
		ts = m.now()
	}

	rows := RowsFromReport(ts.Format(time.RFC3339), report, ids)
	if len(rows) == 0 {
		slog.Debug("no gpm rows this iteration")
		return nil
	}

	if err := m.Writer.WriteRows(rows); err != nil {
		return &writeError{err: err}
	}

	monitorRowsTotal.Add(float64(len(rows)))
	return nil
}

// RowsFromReport flattens a report's GPM measurements into CSV rows, one per
// metric per target, ordered by target then by the given metric IDs.
func RowsFromReport(timestamp string, report *sampler.Report, ids []nvml.GpmMetricId) []serializer.Row {
	if report == nil {
		return nil
	}
	if len(ids) == 0 {
		ids = gpu.DefaultMetricIDs
	}

	var rows []serializer.Row
	for _, m := range report.Measurements {
		if m.Type != measurement.TypeGPM {
			continue
		}

		for i := range m.Subtypes {
			st := &m.Subtypes[i]
			deviceID, ok := deviceIDFromSubtype(st.Name)
			if !ok {
				continue
			}

			for _, id := range ids {
				name := gpu.MetricName(id)
				value, err := st.GetFloat64(name)
				if err != nil {
					continue
				}

				rows = append(rows, serializer.Row{
					Timestamp:         timestamp,
					DeviceID:          deviceID,
					DeviceName:        st.Context[measurement.KeyGPUModel],
					GPUInstanceID:     st.Context[measurement.KeyGPUInstance],
					ComputeInstanceID: st.Context[measurement.KeyComputeInstance],
					MetricID:          uint32(id),
					MetricName:        name,
					Value:             value,
					Unit:              gpu.MetricUnit(id),
				})
			}
		}
	}
	return rows
}

// deviceIDFromSubtype extracts the GPU index from a target subtype name like
// "gpu0" or "gpu0/gi2/ci1". Non-target subtypes such as "system" yield false.
func deviceIDFromSubtype(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, "gpu")
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

type writeError struct {
	err error
}

func (e *writeError) Error() string { return "write rows: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func isWriteError(err error) bool {
	var we *writeError
	return errors.As(err, &we)
}

// notifyReady tells systemd the monitor entered its main loop. Outside a
// systemd unit this is a no-op.
func (m *Monitor) notifyReady() {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		slog.Debug("sd_notify ready failed", "error", err)
	} else if ok {
		slog.Debug("notified systemd: ready")
	}
}

func (m *Monitor) notifyStopping() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		slog.Debug("sd_notify stopping failed", "error", err)
	}
}

func (m *Monitor) notifyWatchdog() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
		slog.Debug("sd_notify watchdog failed", "error", err)
	}
}
