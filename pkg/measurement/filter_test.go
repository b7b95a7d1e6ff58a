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

import "testing"

func metricReadings() map[string]Reading {
	return map[string]Reading{
		"sm_util":          Float64(1),
		"sm_occupancy":     Float64(2),
		"hmma_tensor_util": Float64(3),
		"imma_tensor_util": Float64(4),
		"dram_bw_util":     Float64(5),
		"pcie_tx_per_sec":  Float64(6),
		"pcie_rx_per_sec":  Float64(7),
	}
}

func TestFilterIn(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"exact", []string{"sm_util"}, []string{"sm_util"}},
		{"prefix", []string{"sm_*"}, []string{"sm_util", "sm_occupancy"}},
		{"suffix", []string{"*_tensor_util"}, []string{"hmma_tensor_util", "imma_tensor_util"}},
		{"contains", []string{"*pcie*"}, []string{"pcie_tx_per_sec", "pcie_rx_per_sec"}},
		{"multiple patterns", []string{"dram_bw_util", "sm_*"}, []string{"dram_bw_util", "sm_util", "sm_occupancy"}},
		{"no match", []string{"fp64_util"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterIn(metricReadings(), tt.patterns)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d keys, got %d: %v", len(tt.want), len(got), got)
			}
			for _, k := range tt.want {
				if _, ok := got[k]; !ok {
					t.Errorf("expected key %s in result", k)
				}
			}
		})
	}
}

func TestFilterOut(t *testing.T) {
	got := FilterOut(metricReadings(), []string{"pcie_*", "sm_occupancy"})

	if len(got) != 4 {
		t.Fatalf("expected 4 keys, got %d: %v", len(got), got)
	}
	for _, k := range []string{"pcie_tx_per_sec", "pcie_rx_per_sec", "sm_occupancy"} {
		if _, ok := got[k]; ok {
			t.Errorf("expected key %s to be filtered out", k)
		}
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		key     string
		pattern string
		want    bool
	}{
		{"sm_util", "sm_util", true},
		{"sm_util", "sm_*", true},
		{"sm_util", "*_util", true},
		{"sm_util", "*m_u*", true},
		{"sm_util", "dram_*", false},
		{"sm_util", "*", true},
		{"hmma_tensor_util", "h*tensor*util", true},
		{"hmma_tensor_util", "h*pcie*util", false},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.pattern, func(t *testing.T) {
			if got := matchesPattern(tt.key, tt.pattern); got != tt.want {
				t.Errorf("matchesPattern(%q, %q) = %v, want %v", tt.key, tt.pattern, got, tt.want)
			}
		})
	}
}
