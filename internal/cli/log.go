// Package cli implements the structview command-line interface.
//
// The commands share one [CLI] value holding the logger and the loaded
// configuration. Frame files are JSON: either an array of frames or a
// stream of frame objects, each mapping group names to a layout name and
// its records.
//
// # Commands
//
// The main commands are:
//   - render: Replay a frame file and write SVG, PNG, PDF, JSON or DOT
//   - watch: Re-render frame files whenever they change
//   - step: Step through a frame file interactively in the terminal
//   - serve: Run the HTTP API with live sessions and Prometheus metrics
//   - layouts: List the built-in layout algorithms
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes one line per engine render pass.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
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

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Rendered trace.json (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
