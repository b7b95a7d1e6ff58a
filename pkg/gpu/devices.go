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
	"fmt"
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Target identifies a sampling target: either a whole GPU or a single MIG
// compute slice on a MIG-enabled GPU. GPM sampling always goes through the
// parent device handle; for MIG slices the GPU-instance ID selects the slice.
type Target struct {
	// Parent is the physical GPU device handle.
	Parent Device

	// Index is the NVML index of the physical GPU.
	Index int

	// Name is the product name of the physical GPU.
	Name string

	// UUID identifies the target. For MIG slice targets this is the MIG
	// device UUID, not the parent GPU UUID.
	UUID string

	// MIG indicates the target is a MIG compute slice.
	MIG bool

	// GPUInstanceID and ComputeInstanceID are set for MIG targets only.
	GPUInstanceID     int
	ComputeInstanceID int

	// MemoryBytes is the total framebuffer memory of the target.
	MemoryBytes uint64
}

// String returns a short human-readable target identifier.
func (t Target) String() string {
	if t.MIG {
		return fmt.Sprintf("gpu%d/gi%d/ci%d", t.Index, t.GPUInstanceID, t.ComputeInstanceID)
	}
	return fmt.Sprintf("gpu%d", t.Index)
}

// EnumerateTargets lists all sampling targets on the node. MIG compute
// slices take precedence: when at least one slice exists anywhere, only
// slices are returned. When no GPU has MIG slices, the whole GPUs are
// returned instead. The NVML library must already be initialized.
func EnumerateTargets(ctx context.Context, lib Interface) ([]Target, error) {
	count, ret := lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, errorOf("get device count", ret)
	}

	var migTargets []Target
	var gpuTargets []Target

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		device, ret := lib.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			slog.Warn("skipping device, handle lookup failed",
				"index", i, "error", nvml.ErrorString(ret))
			continue
		}

		name, ret := device.GetName()
		if ret != nvml.SUCCESS {
			name = "Unknown"
		}

		gpuTargets = append(gpuTargets, gpuTarget(device, i, name))

		migMode, _, ret := device.GetMigMode()
		if ret != nvml.SUCCESS || migMode != nvml.DEVICE_MIG_ENABLE {
			continue
		}

		slices, err := migSlices(device, i, name)
		if err != nil {
			slog.Warn("skipping MIG enumeration on device", "index", i, "error", err)
			continue
		}
		migTargets = append(migTargets, slices...)
	}

	if len(migTargets) > 0 {
		return migTargets, nil
	}
	return gpuTargets, nil
}

func gpuTarget(device Device, index int, name string) Target {
	t := Target{
		Parent: device,
		Index:  index,
		Name:   name,
	}
	if uuid, ret := device.GetUUID(); ret == nvml.SUCCESS {
		t.UUID = uuid
	}
	if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
		t.MemoryBytes = mem.Total
	}
	return t
}

// migSlices walks the MIG device slots on a MIG-enabled GPU. Empty slots
// return ERROR_NOT_FOUND and are skipped.
func migSlices(device Device, index int, name string) ([]Target, error) {
	maxCount, ret := device.GetMaxMigDeviceCount()
	if ret != nvml.SUCCESS {
		return nil, errorOf("get max MIG device count", ret)
	}

	var targets []Target
	for slot := 0; slot < maxCount; slot++ {
		mig, ret := device.GetMigDeviceHandleByIndex(slot)
		if ret == nvml.ERROR_NOT_FOUND {
			continue
		}
		if ret != nvml.SUCCESS {
			slog.Warn("skipping MIG slot, handle lookup failed",
				"index", index, "slot", slot, "error", nvml.ErrorString(ret))
			continue
		}

		gi, ret := mig.GetGpuInstanceId()
		if ret != nvml.SUCCESS {
			slog.Warn("skipping MIG slot, GPU instance ID lookup failed",
				"index", index, "slot", slot, "error", nvml.ErrorString(ret))
			continue
		}
		ci, ret := mig.GetComputeInstanceId()
		if ret != nvml.SUCCESS {
			slog.Warn("skipping MIG slot, compute instance ID lookup failed",
				"index", index, "slot", slot, "error", nvml.ErrorString(ret))
			continue
		}

		t := Target{
			Parent:            device,
			Index:             index,
			Name:              name,
			MIG:               true,
			GPUInstanceID:     gi,
			ComputeInstanceID: ci,
		}
		if uuid, ret := mig.GetUUID(); ret == nvml.SUCCESS {
			t.UUID = uuid
		}
		if mem, ret := mig.GetMemoryInfo(); ret == nvml.SUCCESS {
			t.MemoryBytes = mem.Total
		}
		targets = append(targets, t)
	}

	return targets, nil
}

// DeviceInfo is the static inventory of a physical GPU.
type DeviceInfo struct {
	Index        int
	Name         string
	UUID         string
	MIGEnabled   bool
	MemoryBytes  uint64
	GPMSupported bool
}

// EnumerateDevices lists the physical GPUs with their static properties.
// The NVML library must already be initialized.
func EnumerateDevices(ctx context.Context, lib Interface) ([]DeviceInfo, error) {
	count, ret := lib.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, errorOf("get device count", ret)
	}

	infos := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		device, ret := lib.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			slog.Warn("skipping device, handle lookup failed",
				"index", i, "error", nvml.ErrorString(ret))
			continue
		}

		info := DeviceInfo{Index: i, Name: "Unknown"}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			info.Name = name
		}
		if uuid, ret := device.GetUUID(); ret == nvml.SUCCESS {
			info.UUID = uuid
		}
		if migMode, _, ret := device.GetMigMode(); ret == nvml.SUCCESS {
			info.MIGEnabled = migMode == nvml.DEVICE_MIG_ENABLE
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			info.MemoryBytes = mem.Total
		}
		if support, ret := device.GpmQueryDeviceSupport(); ret == nvml.SUCCESS {
			info.GPMSupported = support.IsSupportedDevice != 0
		}
		infos = append(infos, info)
	}

	return infos, nil
}
