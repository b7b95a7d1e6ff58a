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
	"testing"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/gpmon/pkg/gpu"
	"github.com/NVIDIA/gpmon/pkg/gpu/gputest"
	"github.com/NVIDIA/gpmon/pkg/measurement"
)

const testInterval = 101 * time.Millisecond

func TestCollect(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "NVIDIA H100 80GB HBM3", UUID: "GPU-aaa", GPMSupported: true},
			{Name: "NVIDIA H100 80GB HBM3", UUID: "GPU-bbb", GPMSupported: true},
		},
	}
	c := &Collector{NVML: lib, Interval: testInterval}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if m.Type != measurement.TypeGPM {
		t.Errorf("expected type %s, got %s", measurement.TypeGPM, m.Type)
	}
	if len(m.Subtypes) != 2 {
		t.Fatalf("expected 2 subtypes, got %d", len(m.Subtypes))
	}
	if m.Subtypes[0].Name != "gpu0" || m.Subtypes[1].Name != "gpu1" {
		t.Errorf("unexpected subtype names: %v", m.SubtypeNames())
	}
	if len(m.Subtypes[0].Data) != len(gpu.DefaultMetricIDs) {
		t.Errorf("expected %d readings, got %d", len(gpu.DefaultMetricIDs), len(m.Subtypes[0].Data))
	}
	if m.Subtypes[0].Context[measurement.KeyGPUUUID] != "GPU-aaa" {
		t.Errorf("unexpected context: %v", m.Subtypes[0].Context)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("expected valid measurement: %v", err)
	}
	if lib.Shutdowns != 1 {
		t.Errorf("expected nvml shutdown, got %d", lib.Shutdowns)
	}
}

func TestCollect_MIGSliceContext(t *testing.T) {
	migGPU := &gputest.Device{
		Name:        "NVIDIA A100-SXM4-40GB",
		UUID:        "GPU-mig",
		MigMode:     nvml.DEVICE_MIG_ENABLE,
		MaxMigCount: 7,
		MigSlots: map[int]*gputest.Device{
			0: {UUID: "MIG-x", GPUInstanceID: 2, ComputeInstanceID: 1},
		},
		GPMSupported: true,
	}
	lib := &gputest.Lib{Devices: []*gputest.Device{migGPU}}
	c := &Collector{NVML: lib, Interval: testInterval}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(m.Subtypes) != 1 {
		t.Fatalf("expected 1 subtype, got %d", len(m.Subtypes))
	}
	st := m.Subtypes[0]
	if st.Name != "gpu0/gi2/ci1" {
		t.Errorf("expected gpu0/gi2/ci1, got %s", st.Name)
	}
	if st.Context[measurement.KeyGPUInstance] != "2" {
		t.Errorf("expected gpu instance 2 in context, got %v", st.Context)
	}
	if st.Context[measurement.KeyComputeInstance] != "1" {
		t.Errorf("expected compute instance 1 in context, got %v", st.Context)
	}
}

func TestCollect_InitFailure(t *testing.T) {
	lib := &gputest.Lib{InitRet: nvml.ERROR_LIBRARY_NOT_FOUND}
	c := &Collector{NVML: lib, Interval: testInterval}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}
	assertNoTargets(t, m)
}

func TestCollect_NoSupportedTargets(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "Tesla T4", UUID: "GPU-t4", GPMSupported: false},
		},
	}
	c := &Collector{NVML: lib, Interval: testInterval}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	assertNoTargets(t, m)
}

func TestCollect_SkipsFailingTarget(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "h100", UUID: "GPU-bad", GPMSupported: true, SampleRet: nvml.ERROR_UNKNOWN},
			{Name: "h100", UUID: "GPU-ok", GPMSupported: true},
		},
	}
	c := &Collector{NVML: lib, Interval: testInterval}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(m.Subtypes) != 1 {
		t.Fatalf("expected 1 subtype, got %d", len(m.Subtypes))
	}
	if m.Subtypes[0].Context[measurement.KeyGPUUUID] != "GPU-ok" {
		t.Errorf("expected surviving target, got %v", m.Subtypes[0].Context)
	}
}

func TestCollect_MetricFilter(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "h100", UUID: "GPU-a", GPMSupported: true},
		},
	}
	c := &Collector{NVML: lib, Interval: testInterval, Filter: []string{"sm_*"}}

	m, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	st := m.Subtypes[0]
	if len(st.Data) != 2 {
		t.Fatalf("expected sm_util and sm_occupancy only, got %v", st.Keys())
	}
	if !st.Has("sm_util") || !st.Has("sm_occupancy") {
		t.Errorf("unexpected readings: %v", st.Keys())
	}
}

func TestCollect_RejectsShortInterval(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "h100", UUID: "GPU-a", GPMSupported: true},
		},
	}
	c := &Collector{NVML: lib, Interval: 50 * time.Millisecond}

	m, err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("expected error for interval at or below the NVML minimum")
	}
	if m != nil {
		t.Errorf("expected nil measurement, got %v", m.SubtypeNames())
	}
	if lib.Inits != 0 {
		t.Errorf("expected no nvml init for rejected interval, got %d", lib.Inits)
	}
}

func TestCollect_ContextCanceled(t *testing.T) {
	lib := &gputest.Lib{
		Devices: []*gputest.Device{
			{Name: "h100", UUID: "GPU-a", GPMSupported: true},
		},
	}
	c := &Collector{NVML: lib, Interval: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := c.Collect(ctx); err == nil {
		t.Fatal("expected error on canceled context")
	}
	if lib.Shutdowns != 1 {
		t.Errorf("expected nvml shutdown even on error, got %d", lib.Shutdowns)
	}
}

func assertNoTargets(t *testing.T, m *measurement.Measurement) {
	t.Helper()
	if m == nil {
		t.Fatal("expected non-nil measurement")
	}
	if m.Type != measurement.TypeGPM {
		t.Errorf("expected type %s, got %s", measurement.TypeGPM, m.Type)
	}
	if len(m.Subtypes) != 1 || m.Subtypes[0].Name != subtypeSystem {
		t.Fatalf("expected single system subtype, got %v", m.SubtypeNames())
	}
	count, err := m.Subtypes[0].GetInt64(measurement.KeyGPUCount)
	if err != nil || count != 0 {
		t.Errorf("expected gpu-count 0, got %v (err %v)", count, err)
	}
}
