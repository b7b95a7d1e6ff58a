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

// Package gputest provides in-memory fakes of the gpu package interfaces
// so that callers can be tested without NVML or GPU hardware.
package gputest

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/gpmon/pkg/gpu"
)

// Sample records whether it was freed.
type Sample struct {
	Freed bool
}

func (s *Sample) Free() nvml.Return {
	s.Freed = true
	return nvml.SUCCESS
}

// Device implements gpu.Device. The zero value behaves like a non-MIG GPU
// with GPM support disabled.
type Device struct {
	Name string
	UUID string

	MigMode    int
	MigModeRet nvml.Return

	MaxMigCount    int
	MaxMigCountRet nvml.Return
	MigSlots       map[int]*Device

	GPUInstanceID     int
	ComputeInstanceID int

	Memory    uint64
	MemoryRet nvml.Return

	GPMSupported  bool
	GPMSupportRet nvml.Return

	SampleRet    nvml.Return
	MigSampleRet nvml.Return

	SampleCalls    int
	MigSampleCalls []int
}

func (d *Device) GetName() (string, nvml.Return) {
	if d.Name == "" {
		return "", nvml.ERROR_UNKNOWN
	}
	return d.Name, nvml.SUCCESS
}

func (d *Device) GetUUID() (string, nvml.Return) {
	if d.UUID == "" {
		return "", nvml.ERROR_UNKNOWN
	}
	return d.UUID, nvml.SUCCESS
}

func (d *Device) GetMigMode() (int, int, nvml.Return) {
	if d.MigModeRet != nvml.SUCCESS {
		return 0, 0, d.MigModeRet
	}
	return d.MigMode, d.MigMode, nvml.SUCCESS
}

func (d *Device) GetMaxMigDeviceCount() (int, nvml.Return) {
	if d.MaxMigCountRet != nvml.SUCCESS {
		return 0, d.MaxMigCountRet
	}
	return d.MaxMigCount, nvml.SUCCESS
}

func (d *Device) GetMigDeviceHandleByIndex(index int) (gpu.Device, nvml.Return) {
	mig, ok := d.MigSlots[index]
	if !ok {
		return nil, nvml.ERROR_NOT_FOUND
	}
	return mig, nvml.SUCCESS
}

func (d *Device) GetGpuInstanceId() (int, nvml.Return) {
	return d.GPUInstanceID, nvml.SUCCESS
}

func (d *Device) GetComputeInstanceId() (int, nvml.Return) {
	return d.ComputeInstanceID, nvml.SUCCESS
}

func (d *Device) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	if d.MemoryRet != nvml.SUCCESS {
		return nvml.Memory{}, d.MemoryRet
	}
	return nvml.Memory{Total: d.Memory}, nvml.SUCCESS
}

func (d *Device) GpmQueryDeviceSupport() (nvml.GpmSupport, nvml.Return) {
	if d.GPMSupportRet != nvml.SUCCESS {
		return nvml.GpmSupport{}, d.GPMSupportRet
	}
	var s nvml.GpmSupport
	if d.GPMSupported {
		s.IsSupportedDevice = 1
	}
	return s, nvml.SUCCESS
}

func (d *Device) GpmSampleGet(s gpu.Sample) nvml.Return {
	d.SampleCalls++
	return d.SampleRet
}

func (d *Device) GpmMigSampleGet(gpuInstanceID int, s gpu.Sample) nvml.Return {
	d.MigSampleCalls = append(d.MigSampleCalls, gpuInstanceID)
	return d.MigSampleRet
}

// Lib implements gpu.Interface.
type Lib struct {
	Devices  []*Device
	CountRet nvml.Return

	DriverVersion string
	NVMLVersion   string
	CudaVersion   int

	InitRet nvml.Return

	AllocRet  nvml.Return
	Allocated []*Sample

	Metrics    []gpu.MetricValue
	MetricsRet nvml.Return

	Inits     int
	Shutdowns int
}

func (l *Lib) Init() nvml.Return {
	l.Inits++
	return l.InitRet
}

func (l *Lib) Shutdown() nvml.Return {
	l.Shutdowns++
	return nvml.SUCCESS
}

func (l *Lib) SystemGetDriverVersion() (string, nvml.Return) {
	return l.DriverVersion, nvml.SUCCESS
}

func (l *Lib) SystemGetNVMLVersion() (string, nvml.Return) {
	return l.NVMLVersion, nvml.SUCCESS
}

func (l *Lib) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return l.CudaVersion, nvml.SUCCESS
}

func (l *Lib) DeviceGetCount() (int, nvml.Return) {
	if l.CountRet != nvml.SUCCESS {
		return 0, l.CountRet
	}
	return len(l.Devices), nvml.SUCCESS
}

func (l *Lib) DeviceGetHandleByIndex(index int) (gpu.Device, nvml.Return) {
	if index < 0 || index >= len(l.Devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	if l.Devices[index] == nil {
		return nil, nvml.ERROR_UNKNOWN
	}
	return l.Devices[index], nvml.SUCCESS
}

func (l *Lib) GpmSampleAlloc() (gpu.Sample, nvml.Return) {
	if l.AllocRet != nvml.SUCCESS {
		return nil, l.AllocRet
	}
	s := &Sample{}
	l.Allocated = append(l.Allocated, s)
	return s, nvml.SUCCESS
}

func (l *Lib) GpmMetricsGet(sample1, sample2 gpu.Sample, ids []nvml.GpmMetricId) ([]gpu.MetricValue, nvml.Return) {
	if l.MetricsRet != nvml.SUCCESS {
		return nil, l.MetricsRet
	}
	if l.Metrics != nil {
		return l.Metrics, nvml.SUCCESS
	}
	values := make([]gpu.MetricValue, len(ids))
	for i, id := range ids {
		values[i] = gpu.MetricValue{ID: id, Value: float64(i), Status: nvml.SUCCESS}
	}
	return values, nvml.SUCCESS
}
