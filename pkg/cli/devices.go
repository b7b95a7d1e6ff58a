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
	"github.com/NVIDIA/gpmon/pkg/header"
	"github.com/NVIDIA/gpmon/pkg/logging"
	"github.com/NVIDIA/gpmon/pkg/sampler"
	"github.com/NVIDIA/gpmon/pkg/serializer"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "devices",
		EnableShellCompletion: true,
		Usage:                 "List the node's GPUs and their GPM capability",
		Description: `Enumerate the node's GPUs without sampling metrics. The inventory
includes model, UUID, memory, MIG mode, and whether each device supports
GPM queries, plus driver and library versions.

# Examples

List devices as a table:
  gpmon devices --format table`,
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))

			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInvalidRequest, "invalid format flag", err)
			}

			collectCtx, cancel := context.WithTimeout(ctx, defaults.CollectorTimeout)
			defer cancel()

			dc := collector.NewDefaultFactory().CreateDeviceCollector()
			devices, err := dc.Collect(collectCtx)
			if err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInternal, "device enumeration failed", err)
			}

			inventory := sampler.NewReport()
			inventory.Init(header.KindInventory, sampler.FullAPIVersion, version)
			inventory.Measurements = append(inventory.Measurements, devices)

			s := serializer.NewFileWriterOrStdoutWithKubeconfig(
				outFormat, cmd.String("output"), cmd.String("kubeconfig"))
			if err := s.Serialize(ctx, inventory); err != nil {
				return gpmerrors.Wrap(gpmerrors.ErrCodeInternal, "failed to write inventory", err)
			}
			return nil
		},
	}
}
