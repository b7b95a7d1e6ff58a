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

// Package serializer writes collected GPU metric reports to their destinations.
//
// # Formats
//
// Reports serialize to one of three formats:
//
//   - json: compact machine-parseable output (encoding/json)
//   - yaml: human-readable output suitable for version control (gopkg.in/yaml.v3)
//   - table: flattened FIELD/VALUE listing for terminal viewing, write-only
//
// # Destinations
//
// NewFileWriterOrStdout routes a report by its output path:
//
//   - empty path: stdout
//   - cm://namespace/name: a Kubernetes ConfigMap, written via Server-Side Apply
//   - anything else: a local file
//
// ConfigMap output is intended for in-cluster agents that have no writable
// volume; the report lands under the key "report.json" or "report.yaml" and
// a reader on the control plane picks it up from there.
//
// # CSV monitoring stream
//
// CSVWriter is separate from the report Serializer. It appends one row per
// metric per sampling iteration with a fixed column schema (timestamp,
// device identity, MIG instance IDs, metric id/name/value/unit), emitting
// the header on first write. It exists for long-running monitoring sessions
// where consumers tail the stream rather than parse whole documents.
//
// # Usage
//
//	s := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "report.yaml")
//	defer s.(serializer.Closer).Close()
//
//	if err := s.Serialize(ctx, report); err != nil {
//	    return err
//	}
package serializer
