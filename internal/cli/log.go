// Package cli implements the flowlens command-line interface.
//
// The commands load a program graph (from the analysis service or a JSON
// payload), lay it out and either write static artifacts or host the
// interactive engine. Artifacts go to stdout or files; status lines and the
// spinner go to stderr so output can be piped.
//
// # Commands
//
//   - render: write SVG, PNG, DOT, JSON or text artifacts
//   - layout: write the computed layout
//   - sequence: print the playback order
//   - view: explore a graph interactively in the terminal
//   - serve: render over HTTP
//   - cache: manage the local cache
//
// # Logging
//
// --verbose (-v) enables debug records. Batch commands log to stderr; the
// viewer owns the terminal, so it logs nowhere unless --log-file is given.
// Loggers travel through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger stamped "HH:MM:SS.cc" writing records at or
// above level to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// viewLogger returns the logger for a viewer session. Without a path every
// record is discarded, since any write would tear the alt screen. With one,
// records are appended to the file; the returned func closes it.
func viewLogger(level log.Level, path string) (*log.Logger, func() error, error) {
	if path == "" {
		return newLogger(io.Discard, level), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, level), f.Close, nil
}

// progress times one pipeline stage of a batch command.
type progress struct {
	logger *log.Logger
	stage  string
	start  time.Time
}

func newProgress(l *log.Logger, stage string) *progress {
	return &progress{logger: l, stage: stage, start: time.Now()}
}

// done logs msg at info with the stage, the elapsed time in milliseconds
// and any extra key/value pairs.
func (p *progress) done(msg string, keyvals ...any) {
	kv := append([]any{"stage", p.stage}, keyvals...)
	kv = append(kv, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, kv...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
