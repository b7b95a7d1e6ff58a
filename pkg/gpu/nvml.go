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
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Interface is the subset of the NVML library surface used by gpmon.
// Narrowing the library to the calls we actually make keeps the sampling
// and enumeration logic testable without GPU hardware.
type Interface interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	SystemGetDriverVersion() (string, nvml.Return)
	SystemGetNVMLVersion() (string, nvml.Return)
	SystemGetCudaDriverVersion() (int, nvml.Return)
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (Device, nvml.Return)
	GpmSampleAlloc() (Sample, nvml.Return)
	GpmMetricsGet(sample1, sample2 Sample, ids []nvml.GpmMetricId) ([]MetricValue, nvml.Return)
}

// Device is the subset of the NVML device surface used by gpmon.
// A Device may be a physical GPU or a MIG device handle.
type Device interface {
	GetName() (string, nvml.Return)
	GetUUID() (string, nvml.Return)
	GetMigMode() (current int, pending int, ret nvml.Return)
	GetMaxMigDeviceCount() (int, nvml.Return)
	GetMigDeviceHandleByIndex(index int) (Device, nvml.Return)
	GetGpuInstanceId() (int, nvml.Return)
	GetComputeInstanceId() (int, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GpmQueryDeviceSupport() (nvml.GpmSupport, nvml.Return)
	GpmSampleGet(s Sample) nvml.Return
	GpmMigSampleGet(gpuInstanceID int, s Sample) nvml.Return
}

// Sample is an opaque GPM sample buffer. Callers must Free every allocated
// sample, on error paths included.
type Sample interface {
	Free() nvml.Return
}

// MetricValue is the status and derived value of a single GPM metric
// computed from a pair of samples. Order of values follows the order of
// the requested metric IDs.
type MetricValue struct {
	ID     nvml.GpmMetricId
	Value  float64
	Status nvml.Return
}

// OK reports whether the driver computed this metric successfully.
func (m MetricValue) OK() bool {
	return m.Status == nvml.SUCCESS
}

// New returns an Interface backed by the real NVML library.
func New() Interface {
	return &nvmlLib{}
}

type nvmlLib struct{}

func (l *nvmlLib) Init() nvml.Return     { return nvml.Init() }
func (l *nvmlLib) Shutdown() nvml.Return { return nvml.Shutdown() }

func (l *nvmlLib) SystemGetDriverVersion() (string, nvml.Return) {
	return nvml.SystemGetDriverVersion()
}

func (l *nvmlLib) SystemGetNVMLVersion() (string, nvml.Return) {
	return nvml.SystemGetNVMLVersion()
}

func (l *nvmlLib) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return nvml.SystemGetCudaDriverVersion()
}

func (l *nvmlLib) DeviceGetCount() (int, nvml.Return) {
	return nvml.DeviceGetCount()
}

func (l *nvmlLib) DeviceGetHandleByIndex(index int) (Device, nvml.Return) {
	d, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return &nvmlDevice{d}, ret
}

func (l *nvmlLib) GpmSampleAlloc() (Sample, nvml.Return) {
	s, ret := nvml.GpmSampleAlloc()
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return &nvmlSample{s}, ret
}

// GpmMetricsGet computes derived metrics from two time-separated samples.
// Per-metric failures are reported in the returned MetricValue statuses,
// a non-SUCCESS return means the call as a whole failed.
func (l *nvmlLib) GpmMetricsGet(sample1, sample2 Sample, ids []nvml.GpmMetricId) ([]MetricValue, nvml.Return) {
	s1, ok1 := sample1.(*nvmlSample)
	s2, ok2 := sample2.(*nvmlSample)
	if !ok1 || !ok2 {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}

	var mg nvml.GpmMetricsGetType
	mg.Version = nvml.GPM_METRICS_GET_VERSION
	mg.NumMetrics = uint32(len(ids))
	mg.Sample1 = s1.s
	mg.Sample2 = s2.s
	for i, id := range ids {
		mg.Metrics[i].MetricId = uint32(id)
	}

	if ret := nvml.GpmMetricsGet(&mg); ret != nvml.SUCCESS {
		return nil, ret
	}

	values := make([]MetricValue, len(ids))
	for i, id := range ids {
		values[i] = MetricValue{
			ID:     id,
			Value:  mg.Metrics[i].Value,
			Status: nvml.Return(mg.Metrics[i].NvmlReturn),
		}
	}
	return values, nvml.SUCCESS
}

type nvmlDevice struct {
	d nvml.Device
}

func (w *nvmlDevice) GetName() (string, nvml.Return) { return w.d.GetName() }
func (w *nvmlDevice) GetUUID() (string, nvml.Return) { return w.d.GetUUID() }

func (w *nvmlDevice) GetMigMode() (int, int, nvml.Return) {
	return w.d.GetMigMode()
}

func (w *nvmlDevice) GetMaxMigDeviceCount() (int, nvml.Return) {
	return w.d.GetMaxMigDeviceCount()
}

func (w *nvmlDevice) GetMigDeviceHandleByIndex(index int) (Device, nvml.Return) {
	d, ret := w.d.GetMigDeviceHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return &nvmlDevice{d}, ret
}

func (w *nvmlDevice) GetGpuInstanceId() (int, nvml.Return) {
	return w.d.GetGpuInstanceId()
}

func (w *nvmlDevice) GetComputeInstanceId() (int, nvml.Return) {
	return w.d.GetComputeInstanceId()
}

func (w *nvmlDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return w.d.GetMemoryInfo()
}

func (w *nvmlDevice) GpmQueryDeviceSupport() (nvml.GpmSupport, nvml.Return) {
	return w.d.GpmQueryDeviceSupport()
}

func (w *nvmlDevice) GpmSampleGet(s Sample) nvml.Return {
	ns, ok := s.(*nvmlSample)
	if !ok {
		return nvml.ERROR_INVALID_ARGUMENT
	}
	return w.d.GpmSampleGet(ns.s)
}

func (w *nvmlDevice) GpmMigSampleGet(gpuInstanceID int, s Sample) nvml.Return {
	ns, ok := s.(*nvmlSample)
	if !ok {
		return nvml.ERROR_INVALID_ARGUMENT
	}
	return w.d.GpmMigSampleGet(gpuInstanceID, ns.s)
}

type nvmlSample struct {
	s nvml.GpmSample
}

func (w *nvmlSample) Free() nvml.Return { return w.s.Free() }

// errorOf converts an NVML return code into a Go error, nil on SUCCESS.
func errorOf(op string, ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return fmt.Errorf("%s: %s", op, nvml.ErrorString(ret))
}
