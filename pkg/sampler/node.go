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
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/gpmon/pkg/collector"
	"github.com/NVIDIA/gpmon/pkg/header"
	"github.com/NVIDIA/gpmon/pkg/measurement"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

// NodeSampler collects GPU metric measurements from the current node.
// It runs the GPM and device collectors in parallel and serializes the
// resulting report.
type NodeSampler struct {
	// Version is the sampler version.
	Version string

	// Factory is the collector factory to use. If nil, the default factory is used.
	Factory collector.Factory

	// Serializer is the serializer to use for output. If nil, a default stdout JSON serializer is used.
	Serializer serializer.Serializer

	// SkipInventory disables the device inventory measurement.
	SkipInventory bool
}

// Measure collects GPU measurements and serializes the report.
// Collectors run in parallel using errgroup; if any collector fails, the
// entire operation returns an error.
func (n *NodeSampler) Measure(ctx context.Context) error {
	report, err := n.Collect(ctx)
	if err != nil {
		return err
	}

	s := n.Serializer
	if s == nil {
		s = serializer.NewStdoutWriter(serializer.FormatJSON)
	}

	if err := s.Serialize(ctx, report); err != nil {
		slog.Error("failed to serialize", slog.String("error", err.Error()))
		return fmt.Errorf("failed to serialize: %w", err)
	}

	return nil
}

// Collect gathers measurements from all collectors and returns the report
// without serializing it. The monitor loop uses this to reuse one report
// per interval tick.
func (n *NodeSampler) Collect(ctx context.Context) (*Report, error) {
	if n.Factory == nil {
		n.Factory = collector.NewDefaultFactory()
	}

	slog.Debug("starting metric report")

	start := time.Now()
	defer func() {
		reportCollectionDuration.Observe(time.Since(start).Seconds())
	}()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	report := NewReport()

	// Collect metadata
	g.Go(func() error {
		collectorStart := time.Now()
		defer func() {
			reportCollectorDuration.WithLabelValues("metadata").Observe(time.Since(collectorStart).Seconds())
		}()
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		mu.Lock()
		report.Init(header.KindReport, FullAPIVersion, n.Version)
		report.Metadata["source-node"] = hostname
		report.Metadata["session"] = uuid.NewString()
		mu.Unlock()
		slog.Debug("obtained node metadata", slog.String("name", hostname), slog.String("version", n.Version))
		return nil
	})

	// Collect GPM utilization metrics
	g.Go(func() error {
		collectorStart := time.Now()
		defer func() {
			reportCollectorDuration.WithLabelValues("gpm").Observe(time.Since(collectorStart).Seconds())
		}()
		slog.Debug("collecting gpm metrics")
		gc := n.Factory.CreateGPMCollector()
		gpmMetrics, err := gc.Collect(gctx)
		if err != nil {
			slog.Error("failed to collect gpm metrics", slog.String("error", err.Error()))
			return fmt.Errorf("failed to collect gpm metrics: %w", err)
		}
		mu.Lock()
		report.Measurements = append(report.Measurements, gpmMetrics)
		mu.Unlock()
		return nil
	})

	// Collect device inventory
	if !n.SkipInventory {
		g.Go(func() error {
			collectorStart := time.Now()
			defer func() {
				reportCollectorDuration.WithLabelValues("device").Observe(time.Since(collectorStart).Seconds())
			}()
			slog.Debug("collecting device inventory")
			dc := n.Factory.CreateDeviceCollector()
			devices, err := dc.Collect(gctx)
			if err != nil {
				slog.Error("failed to collect devices", slog.String("error", err.Error()))
				return fmt.Errorf("failed to collect device info: %w", err)
			}
			mu.Lock()
			report.Measurements = append(report.Measurements, devices)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		reportCollectionTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	reportCollectionTotal.WithLabelValues("success").Inc()
	reportMeasurementCount.Set(float64(len(report.Measurements)))

	// Stable order regardless of goroutine completion
	sortMeasurements(report.Measurements)

	slog.Debug("report collection complete", slog.Int("measurements", len(report.Measurements)))
	return report, nil
}

// sortMeasurements orders measurements GPM first, then Device.
func sortMeasurements(ms []*measurement.Measurement) {
	rank := func(t measurement.Type) int {
		switch t {
		case measurement.TypeGPM:
			return 0
		case measurement.TypeDevice:
			return 1
		default:
			return 2
		}
	}
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && rank(ms[j-1].Type) > rank(ms[j].Type); j-- {
			ms[j-1], ms[j] = ms[j], ms[j-1]
		}
	}
}
