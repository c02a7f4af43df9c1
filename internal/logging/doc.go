// Package logging provides structured logging for hookbus.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Every bus logs through a child logger carrying its
// name, so a failing listener can be traced back to the bus, scope and phase
// it was invoked in.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (bus, scope, phase)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation and filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer safely.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/hookbus", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("reload finished", "resources", 4)
//
// # Context Propagation
//
//	busLogger := logger.WithBus("server")
//	busLogger.WithScope("reload-7f3c").WithPhase("pre").Warn("resource skipped", "path", "chat.yaml")
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"resource skipped","bus":"server","scope":"reload-7f3c","phase":"pre","path":"chat.yaml"}
//
// # Log Rotation
//
//	config := logging.RotationConfig{MaxSizeMB: 10, MaxBackups: 3, Compress: true}
//	logger, err := logging.NewLoggerWithRotation("/var/log/hookbus", "INFO", config)
//
// Rotated files are named debug.log.1, debug.log.2, ... where .1 is the most
// recent backup; with compression they become debug.log.1.gz and so on.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWithWriter] with a buffer to
// assert on the JSON lines a component emits.
//
// # Log Aggregation and Filtering
//
//	entries, err := logging.AggregateLogs("/var/log/hookbus")
//	filtered := logging.FilterLogs(entries, logging.LogFilter{
//	    Level: "ERROR",
//	    Bus:   "server",
//	})
//	logging.ExportLogEntries(filtered, "failures.csv", "csv")
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  dir: ""
//	  max_size_mb: 10
//	  max_backups: 3
//	  compress: false
package logging
