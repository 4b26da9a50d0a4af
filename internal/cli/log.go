// Package cli implements the aidocs command-line interface.
//
// This package provides commands for syncing version-matched vendor
// documentation, reporting how the cache compares to the lock file, and
// serving the cache to AI assistants over MCP. The CLI is built using cobra
// and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - sync: Fetch README/CHANGELOG and configured files for every locked crate
//   - status, check: Compare cached directories with Cargo.lock
//   - prune: Remove directories for versions no longer locked
//   - init: Generate ai-docs.toml from Cargo.lock
//   - mcp: Serve the cache over the Model Context Protocol
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. When
// settings.log_file is set, log lines are also appended to that file, which
// is rotated by size.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation limits.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// teeLogFile sends the logger's output to w and to a rotated file at path.
// The returned closer releases the file.
func teeLogFile(l *log.Logger, w io.Writer, path string) io.Closer {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
	l.SetOutput(io.MultiWriter(w, file))
	return file
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Synced 12 crates (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
