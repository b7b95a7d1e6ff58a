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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/gpmon/pkg/collector"
	"github.com/NVIDIA/gpmon/pkg/defaults"
	gpmerrors "github.com/NVIDIA/gpmon/pkg/errors"
	"github.com/NVIDIA/gpmon/pkg/logging"
	"github.com/NVIDIA/gpmon/pkg/monitor"
	"github.com/NVIDIA/gpmon/pkg/sampler"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:                  "monitor",
		EnableShellCompletion: true,
		Usage:                 "Continuously sample GPU utilization to a CSV stream",
		Description: `Run the sampling loop until interrupted, appending one CSV row per metric
per target each iteration. Output goes to stdout unless --output names a
file. Progress is logged periodically to stderr so the CSV stream stays
clean.

# Examples

Monitor at the default one second cadence:
  gpmon monitor

Monitor every 500ms for two minutes into a file:
  gpmon monitor --interval 500ms --duration 2m --output metrics.csv

Monitor only tensor utilization:
  gpmon monitor --metric '*tensor*'

Monitor as a service with a Prometheus scrape endpoint:
  gpmon monitor --output /var/lib/gpmon/metrics.csv --metrics-addr :9400`,
		Flags: []cli.Flag{
			outputFlag,
			intervalFlag,
			metricsFlag,
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "pacing between monitoring iterations",
				Sources: cli.EnvVars("GPMON_INTERVAL"),
				Value:   defaults.MonitorInterval,
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "total run time, zero runs until interrupted",
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "address to serve Prometheus metrics on (e.g. :9400), disabled when empty",
				Sources: cli.EnvVars("GPMON_METRICS_ADDR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))

			writer, err := serializer.NewCSVFileWriterOrStdout(cmd.String("output"))
			if err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInvalidRequest, "invalid output flag", err)
			}
			defer func() {
				if err := writer.Close(); err != nil {
					slog.Warn("failed to close csv output", "error", err)
				}
			}()

			factory := collector.NewDefaultFactory(
				collector.WithSampleInterval(cmd.Duration("sample-interval")),
				collector.WithMetricFilter(cmd.StringSlice("metric")),
			)

			if addr := cmd.String("metrics-addr"); addr != "" {
				go func() {
					if err := monitor.ServeMetrics(ctx, addr); err != nil {
						slog.Error("metrics server failed", "error", err)
					}
				}()
			}

			m := &monitor.Monitor{
				Collector: &sampler.NodeSampler{
					Version:       version,
					Factory:       factory,
					SkipInventory: true,
				},
				Writer:   writer,
				Interval: cmd.Duration("interval"),
				Duration: cmd.Duration("duration"),
			}

			if err := m.Run(ctx); err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInternal, "monitoring failed", err)
			}
			return nil
		},
	}
}
