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
	"context"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpmon/pkg/collector"
	"github.com/NVIDIA/gpmon/pkg/defaults"
	gpmerrors "github.com/NVIDIA/gpmon/pkg/errors"
	"github.com/NVIDIA/gpmon/pkg/logging"
	"github.com/NVIDIA/gpmon/pkg/sampler"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

func sampleCmd() *cli.Command {
	return &cli.Command{
		Name:                  "sample",
		EnableShellCompletion: true,
		Usage:                 "Take one GPU utilization sample and print the report",
		Description: `Take two time-separated GPM counter snapshots per target and report the
derived utilization metrics. When any MIG slice exists on the node the
MIG compute slices are sampled, otherwise whole GPUs are.

The report includes a device inventory measurement unless
--skip-inventory is given.

# Examples

Sample to stdout as YAML:
  gpmon sample --format yaml

Sample only SM metrics to a file:
  gpmon sample --metric 'sm_*' --output report.json

Publish the report to a ConfigMap from an in-cluster agent:
  gpmon sample --output cm://gpu-operator/gpmon-report`,
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			intervalFlag,
			metricsFlag,
			kubeconfigFlag,
			&cli.BoolFlag{
				Name:  "skip-inventory",
				Usage: "omit the device inventory measurement",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))

			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInvalidRequest, "invalid format flag", err)
			}

			factory := collector.NewDefaultFactory(
				collector.WithSampleInterval(cmd.Duration("sample-interval")),
				collector.WithMetricFilter(cmd.StringSlice("metric")),
			)

			out := serializer.NewFileWriterOrStdoutWithKubeconfig(
				outFormat, cmd.String("output"), cmd.String("kubeconfig"))

			ns := &sampler.NodeSampler{
				Version:       version,
				Factory:       factory,
				Serializer:    out,
				SkipInventory: cmd.Bool("skip-inventory"),
			}

			sampleCtx, cancel := context.WithTimeout(ctx, defaults.CLISampleTimeout)
			defer cancel()

			if err := ns.Measure(sampleCtx); err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInternal, "sample failed", err)
			}
			return nil
		},
	}
}
