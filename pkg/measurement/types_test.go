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

package measurement

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

const (
	testSubtypeGPU   = "gpu0"
	testSubtypeSlice = "gpu0/gi1/ci0"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name string
		mt   Type
		want string
	}{
		{"GPM", TypeGPM, "GPM"},
		{"Device", TypeDevice, "Device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mt.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Type
		wantOk bool
	}{
		{"valid gpm", "GPM", TypeGPM, true},
		{"valid device", "Device", TypeDevice, true},
		{"invalid", "Invalid", "", false},
		{"empty", "", "", false},
		{"lowercase", "gpm", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotOk := ParseType(tt.input)
			if got != tt.want || gotOk != tt.wantOk {
				t.Errorf("ParseType(%q) = (%v, %v), want (%v, %v)", tt.input, got, gotOk, tt.want, tt.wantOk)
			}
		})
	}
}

func TestToReading(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"int", 42, 42},
		{"int64", int64(42), int64(42)},
		{"uint64", uint64(42), uint64(42)},
		{"float64", 97.5, 97.5},
		{"bool", true, true},
		{"string", "sm_util", "sm_util"},
		{"unsupported falls back to string", []int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ToReading(tt.input)
			if got := r.Any(); got != tt.want {
				t.Errorf("ToReading(%v).Any() = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScalarJSONRoundTrip(t *testing.T) {
	st := Subtype{
		Name: testSubtypeGPU,
		Data: map[string]Reading{
			"sm_util":   Float64(42.5),
			"model":     Str("NVIDIA H100"),
			"gpu-count": Int(8),
			"memory":    Uint64(85899345920),
		},
		Context: map[string]string{
			KeyGPUUUID: "GPU-abc",
		},
	}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Subtype
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.Name != testSubtypeGPU {
		t.Errorf("expected name %s, got %s", testSubtypeGPU, got.Name)
	}
	if v, err := got.GetFloat64("sm_util"); err != nil || v != 42.5 {
		t.Errorf("sm_util = %v (err %v), want 42.5", v, err)
	}
	if v, err := got.GetString("model"); err != nil || v != "NVIDIA H100" {
		t.Errorf("model = %q (err %v), want NVIDIA H100", v, err)
	}
	if got.Context[KeyGPUUUID] != "GPU-abc" {
		t.Errorf("context uuid not preserved: %v", got.Context)
	}
}

func TestScalarYAMLRoundTrip(t *testing.T) {
	st := Subtype{
		Name: testSubtypeSlice,
		Data: map[string]Reading{
			"dram_bw_util": Float64(12.25),
			"mig-enabled":  Bool(true),
		},
	}

	raw, err := yaml.Marshal(st)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Subtype
	if err := yaml.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if v, err := got.GetFloat64("dram_bw_util"); err != nil || v != 12.25 {
		t.Errorf("dram_bw_util = %v (err %v), want 12.25", v, err)
	}
	if v, err := got.GetBool("mig-enabled"); err != nil || !v {
		t.Errorf("mig-enabled = %v (err %v), want true", v, err)
	}
}

func TestMeasurementValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Measurement
		wantErr bool
	}{
		{
			name: "valid",
			m: Measurement{
				Type: TypeGPM,
				Subtypes: []Subtype{
					{Name: testSubtypeGPU, Data: map[string]Reading{"sm_util": Float64(1)}},
				},
			},
		},
		{
			name:    "missing type",
			m:       Measurement{Subtypes: []Subtype{{Name: "x", Data: map[string]Reading{"k": Int(1)}}}},
			wantErr: true,
		},
		{
			name:    "no subtypes",
			m:       Measurement{Type: TypeDevice},
			wantErr: true,
		},
		{
			name: "empty subtype data",
			m: Measurement{
				Type:     TypeGPM,
				Subtypes: []Subtype{{Name: testSubtypeGPU, Data: map[string]Reading{}}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSubtype(t *testing.T) {
	m := Measurement{
		Type: TypeGPM,
		Subtypes: []Subtype{
			{Name: testSubtypeGPU, Data: map[string]Reading{"sm_util": Float64(1)}},
			{Name: testSubtypeSlice, Data: map[string]Reading{"sm_util": Float64(2)}},
		},
	}

	if st := m.GetSubtype(testSubtypeSlice); st == nil {
		t.Fatal("expected to find MIG slice subtype")
	}
	if st := m.GetSubtype("gpu9"); st != nil {
		t.Errorf("expected nil for unknown subtype, got %v", st)
	}
	if !m.HasSubtype(testSubtypeGPU) {
		t.Error("expected HasSubtype to report gpu0")
	}

	names := m.SubtypeNames()
	if len(names) != 2 || names[0] != testSubtypeGPU || names[1] != testSubtypeSlice {
		t.Errorf("unexpected subtype names: %v", names)
	}
}

func TestSubtypeSortedKeys(t *testing.T) {
	st := Subtype{
		Name: testSubtypeGPU,
		Data: map[string]Reading{
			"sm_util":       Float64(1),
			"dram_bw_util":  Float64(2),
			"graphics_util": Float64(3),
		},
	}

	keys := st.SortedKeys()
	want := []string{"dram_bw_util", "graphics_util", "sm_util"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
}

func TestSubtypeTypedGetters(t *testing.T) {
	st := Subtype{
		Name: testSubtypeGPU,
		Data: map[string]Reading{
			"sm_util":   Float64(42.5),
			"model":     Str("H100"),
			"gpu-count": Int(4),
			"memory":    Uint64(1024),
			"enabled":   Bool(true),
		},
	}

	if v, err := st.GetInt64("gpu-count"); err != nil || v != 4 {
		t.Errorf("GetInt64 = %v (err %v), want 4", v, err)
	}
	if v, err := st.GetUint64("memory"); err != nil || v != 1024 {
		t.Errorf("GetUint64 = %v (err %v), want 1024", v, err)
	}
	if _, err := st.GetFloat64("model"); err == nil {
		t.Error("expected type mismatch error for GetFloat64 on string")
	}
	if _, err := st.GetString("missing"); err == nil {
		t.Error("expected not-found error")
	}
	if !st.Has("enabled") {
		t.Error("expected Has to report enabled")
	}
	if st.Get("missing") != nil {
		t.Error("expected nil reading for missing key")
	}
}
