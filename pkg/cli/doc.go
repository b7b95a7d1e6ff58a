// Package cli implements the gpmon command-line interface.
//
// Commands:
//
//	gpmon sample  [--output DEST] [--format json|yaml|table] [--metric PATTERN]
//	gpmon monitor [--interval DUR] [--duration DUR] [--output FILE]
//	gpmon devices [--output DEST] [--format json|yaml|table]
//
// sample takes one GPM utilization sample per target and prints a report.
// monitor runs the sampling loop continuously, streaming CSV rows.
// devices lists the node's GPUs and their GPM capability without sampling.
//
// Report output destinations accept a file path, cm://namespace/name for a
// Kubernetes ConfigMap, or stdout when empty.
package cli
