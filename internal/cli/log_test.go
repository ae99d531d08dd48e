package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("loaded") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("fetch") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("fetch") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("caching disabled") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressFields(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel), "layout")
	prog.done("laid out graph", "nodes", 7, "levels", 4)

	out := buf.String()
	for _, want := range []string{"laid out graph", "stage=layout", "nodes=7", "levels=4", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestProgressRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel), "render").done("rendered graph")
	if buf.Len() != 0 {
		t.Errorf("progress logged below the level: %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)

	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("loggerFromContext did not return the attached logger")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext without a logger should fall back to log.Default")
	}
}

func TestViewLoggerDiscards(t *testing.T) {
	logger, closeLog, err := viewLogger(log.DebugLevel, "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeLog()

	logger.Info("hover", "id", 3)
	if logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
}

func TestViewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.log")
	if err := os.WriteFile(path, []byte("previous session\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger, closeLog, err := viewLogger(log.InfoLevel, path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("loaded graph", "nodes", 5)
	logger.Debug("tick", "step", 2)
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "previous session\n") {
		t.Errorf("log file was truncated: %q", got)
	}
	if !strings.Contains(got, "loaded graph") || !strings.Contains(got, "nodes=5") {
		t.Errorf("log file lacks the info record: %q", got)
	}
	if strings.Contains(got, "tick") {
		t.Errorf("log file has a debug record at info level: %q", got)
	}
}

func TestViewLoggerBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "view.log")
	if _, _, err := viewLogger(log.InfoLevel, path); err == nil {
		t.Error("expected an error for a path in a missing directory")
	}
}
