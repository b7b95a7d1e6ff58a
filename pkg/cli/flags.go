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

package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpmon/pkg/gpu"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

var (
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (debug, info, warn, error)",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output destination: file path, cm://namespace/name, or stdout when empty",
		Sources: cli.EnvVars("GPMON_OUTPUT"),
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("output format: %s", strings.Join(serializer.SupportedFormats(), ", ")),
		Sources: cli.EnvVars("GPMON_FORMAT"),
		Value:   string(serializer.FormatJSON),
	}

	intervalFlag = &cli.DurationFlag{
		Name:    "sample-interval",
		Usage:   "delay between the two gpm counter snapshots per target",
		Sources: cli.EnvVars("GPMON_SAMPLE_INTERVAL"),
		Value:   gpu.DefaultSampleInterval,
	}

	metricsFlag = &cli.StringSliceFlag{
		Name:  "metric",
		Usage: "metric name patterns to keep (wildcards allowed, can be repeated)",
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "path to the kubeconfig file used for cm:// output (in-cluster config when empty)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
)

// parseOutputFormat validates the format flag and returns the matching
// serializer format.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q, supported: %s",
			cmd.String("format"), strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}
