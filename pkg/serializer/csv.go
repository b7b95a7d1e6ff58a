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

package serializer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader is the column order for monitoring output. Downstream
// tooling depends on this exact schema, so it never changes shape.
var csvHeader = []string{
	"timestamp",
	"device_id",
	"device_name",
	"gpu_instance_id",
	"compute_instance_id",
	"metric_id",
	"metric_name",
	"value",
	"unit",
}

// Row is a single metric observation destined for CSV output.
// GPUInstanceID and ComputeInstanceID are empty for whole-GPU targets.
type Row struct {
	Timestamp         string
	DeviceID          string
	DeviceName        string
	GPUInstanceID     string
	ComputeInstanceID string
	MetricID          uint32
	MetricName        string
	Value             float64
	Unit              string
}

// CSVWriter appends metric rows to a stream. Unlike Writer it is
// meant for long-running monitoring, one flush per batch of rows.
// The header line is written as soon as the writer is created, so an
// interrupted run still leaves a parseable file.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter wraps the given stream and buffers the header line.
// The caller retains ownership of the stream unless it is also an
// io.Closer passed via NewCSVFileWriterOrStdout.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	// Buffered here, surfaces with the first flush below or in WriteRows.
	_ = cw.w.Write(csvHeader)
	return cw
}

// NewCSVFileWriterOrStdout creates a CSV writer backed by the named
// file, or stdout when path is empty. The file is truncated and the
// header line is flushed immediately.
func NewCSVFileWriterOrStdout(path string) (*CSVWriter, error) {
	if path == "" {
		cw := NewCSVWriter(os.Stdout)
		cw.w.Flush()
		if err := cw.w.Error(); err != nil {
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		return cw, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv output file %s: %w", path, err)
	}

	cw := NewCSVWriter(f)
	cw.closer = f
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header to %s: %w", path, err)
	}
	return cw, nil
}

// WriteRows appends the given rows. Rows are flushed before returning.
func (c *CSVWriter) WriteRows(rows []Row) error {
	for _, r := range rows {
		rec := []string{
			r.Timestamp,
			r.DeviceID,
			r.DeviceName,
			r.GPUInstanceID,
			r.ComputeInstanceID,
			strconv.FormatUint(uint64(r.MetricID), 10),
			r.MetricName,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.Unit,
		}
		if err := c.w.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the underlying file when the
// writer owns one.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
