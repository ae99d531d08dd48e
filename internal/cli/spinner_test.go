package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Loading cfg...")
	s.Start()
	time.Sleep(3 * s.frames.FPS)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Loading cfg...") {
		t.Fatalf("output %q lacks the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("output %q should end with a cleared line", out)
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "idle")

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
	if strings.Contains(buf.String(), "idle") {
		t.Errorf("unstarted spinner drew a frame: %q", buf.String())
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "twice")
	s.Start()
	s.Stop()
	n := buf.Len()
	s.Stop()
	if buf.Len() != n {
		t.Errorf("second Stop wrote %d more bytes", buf.Len()-n)
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &buf, "cancelled")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("draw loop kept running after cancellation")
	}
	s.Stop()
}

func TestSpinnerStopWithError(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Loading dfg...")
	s.Start()
	s.StopWithError("Load failed")

	out := buf.String()
	if !strings.Contains(out, iconError) || !strings.Contains(out, "Load failed") {
		t.Errorf("output %q lacks the failure line", out)
	}
}
