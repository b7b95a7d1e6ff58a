// Package logging provides structured logging defaults for gpmon components.
//
// It wraps the standard library slog package with shared conventions:
// JSON output to stderr, module and version context on every record, and
// source location tracking at debug level.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger early in main:
//
//	logging.SetDefaultStructuredLogger("gpmon", version)
//
//	slog.Info("sampling started", "targets", len(targets))
//	slog.Debug("detailed state", "target", target)
//
// Setting an explicit level, for example from a CLI flag:
//
//	logging.SetDefaultStructuredLoggerWithLevel("gpmon", version, "warn")
//
// # Environment Configuration
//
// When no explicit level is given, the LOG_LEVEL environment variable
// controls verbosity:
//
//	LOG_LEVEL=debug gpmon sample
//
// If LOG_LEVEL is not set, the level defaults to INFO.
package logging
