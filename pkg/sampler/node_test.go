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
	"errors"
	"testing"

	"github.com/NVIDIA/gpmon/pkg/collector"
	"github.com/NVIDIA/gpmon/pkg/header"
	"github.com/NVIDIA/gpmon/pkg/measurement"
)

type fakeCollector struct {
	m   *measurement.Measurement
	err error
}

func (f *fakeCollector) Collect(_ context.Context) (*measurement.Measurement, error) {
	return f.m, f.err
}

type fakeFactory struct {
	gpm    collector.Collector
	device collector.Collector
}

func (f *fakeFactory) CreateGPMCollector() collector.Collector    { return f.gpm }
func (f *fakeFactory) CreateDeviceCollector() collector.Collector { return f.device }

type captureSerializer struct {
	captured any
	err      error
	calls    int
}

func (c *captureSerializer) Serialize(_ context.Context, report any) error {
	c.calls++
	c.captured = report
	return c.err
}

func gpmMeasurement() *measurement.Measurement {
	return &measurement.Measurement{
		Type: measurement.TypeGPM,
		Subtypes: []measurement.Subtype{
			{
				Name: "gpu0",
				Data: map[string]measurement.Reading{
					"sm_util": measurement.Float64(42.5),
				},
			},
		},
	}
}

func deviceMeasurement() *measurement.Measurement {
	return &measurement.Measurement{
		Type: measurement.TypeDevice,
		Subtypes: []measurement.Subtype{
			{
				Name: "system",
				Data: map[string]measurement.Reading{
					measurement.KeyGPUCount: measurement.Int(1),
				},
			},
		},
	}
}

func TestNodeSampler_Collect(t *testing.T) {
	ns := &NodeSampler{
		Version: "v1.2.3",
		Factory: &fakeFactory{
			gpm:    &fakeCollector{m: gpmMeasurement()},
			device: &fakeCollector{m: deviceMeasurement()},
		},
	}

	report, err := ns.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if report.Kind != header.KindReport {
		t.Errorf("Kind = %q, want %q", report.Kind, header.KindReport)
	}
	if report.APIVersion != FullAPIVersion {
		t.Errorf("APIVersion = %q, want %q", report.APIVersion, FullAPIVersion)
	}
	if report.Metadata["version"] != "v1.2.3" {
		t.Errorf("version metadata = %q, want v1.2.3", report.Metadata["version"])
	}
	if report.Metadata["source-node"] == "" {
		t.Error("expected source-node metadata")
	}
	if report.Metadata["session"] == "" {
		t.Error("expected session metadata")
	}
	if report.Metadata["timestamp"] == "" {
		t.Error("expected timestamp metadata")
	}

	if len(report.Measurements) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(report.Measurements))
	}
	if report.Measurements[0].Type != measurement.TypeGPM {
		t.Errorf("first measurement type = %q, want %q", report.Measurements[0].Type, measurement.TypeGPM)
	}
	if report.Measurements[1].Type != measurement.TypeDevice {
		t.Errorf("second measurement type = %q, want %q", report.Measurements[1].Type, measurement.TypeDevice)
	}
}

func TestNodeSampler_SkipInventory(t *testing.T) {
	ns := &NodeSampler{
		Factory: &fakeFactory{
			gpm:    &fakeCollector{m: gpmMeasurement()},
			device: &fakeCollector{err: errors.New("device collector should not run")},
		},
		SkipInventory: true,
	}

	report, err := ns.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(report.Measurements) != 1 {
		t.Fatalf("expected 1 measurement, got %d", len(report.Measurements))
	}
	if report.Measurements[0].Type != measurement.TypeGPM {
		t.Errorf("measurement type = %q, want %q", report.Measurements[0].Type, measurement.TypeGPM)
	}
}

func TestNodeSampler_CollectorError(t *testing.T) {
	wantErr := errors.New("nvml exploded")
	ns := &NodeSampler{
		Factory: &fakeFactory{
			gpm:    &fakeCollector{err: wantErr},
			device: &fakeCollector{m: deviceMeasurement()},
		},
	}

	_, err := ns.Collect(context.Background())
	if err == nil {
		t.Fatal("expected error from failing collector")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestNodeSampler_Measure(t *testing.T) {
	capture := &captureSerializer{}
	ns := &NodeSampler{
		Version: "v0.0.1",
		Factory: &fakeFactory{
			gpm:    &fakeCollector{m: gpmMeasurement()},
			device: &fakeCollector{m: deviceMeasurement()},
		},
		Serializer: capture,
	}

	if err := ns.Measure(context.Background()); err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	if capture.calls != 1 {
		t.Fatalf("expected 1 serialize call, got %d", capture.calls)
	}

	report, ok := capture.captured.(*Report)
	if !ok {
		t.Fatalf("serialized value is %T, want *Report", capture.captured)
	}
	if len(report.Measurements) != 2 {
		t.Errorf("expected 2 measurements, got %d", len(report.Measurements))
	}
}

func TestNodeSampler_SerializeError(t *testing.T) {
	capture := &captureSerializer{err: errors.New("disk full")}
	ns := &NodeSampler{
		Factory: &fakeFactory{
			gpm:    &fakeCollector{m: gpmMeasurement()},
			device: &fakeCollector{m: deviceMeasurement()},
		},
		Serializer: capture,
	}

	if err := ns.Measure(context.Background()); err == nil {
		t.Fatal("expected serialization error")
	}
}

func TestNodeSampler_SessionUniquePerCollect(t *testing.T) {
	ns := &NodeSampler{
		Factory: &fakeFactory{
			gpm:    &fakeCollector{m: gpmMeasurement()},
			device: &fakeCollector{m: deviceMeasurement()},
		},
	}

	first, err := ns.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	second, err := ns.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if first.Metadata["session"] == second.Metadata["session"] {
		t.Error("expected distinct session IDs across collections")
	}
}

func TestSortMeasurements(t *testing.T) {
	ms := []*measurement.Measurement{
		{Type: measurement.TypeDevice},
		{Type: measurement.TypeGPM},
	}

	sortMeasurements(ms)

	if ms[0].Type != measurement.TypeGPM || ms[1].Type != measurement.TypeDevice {
		t.Errorf("unexpected order: %q, %q", ms[0].Type, ms[1].Type)
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport()
	if report.Measurements == nil {
		t.Error("expected initialized Measurements slice")
	}
	if len(report.Measurements) != 0 {
		t.Errorf("expected empty Measurements, got %d", len(report.Measurements))
	}
}
