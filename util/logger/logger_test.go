package logger

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestHandleWritesToFileAndStderrOnDebug(t *testing.T) {
	stderr, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	saved := os.Stderr
	os.Stderr = stderr
	defer func() { os.Stderr = saved }()

	var buf bytes.Buffer
	debug := true
	h := NewHandler(&buf, nil, &debug)

	log := slog.New(h)
	log.Info("agent started", "pid", 1234)

	out := buf.String()
	if !strings.Contains(out, "agent started") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "INFO:") {
		t.Errorf("log output missing level: %q", out)
	}

	mirrored, err := os.ReadFile(stderr.Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(mirrored), "agent started") {
		t.Errorf("stderr missing Info record with debug on: %q", mirrored)
	}
}

func TestSetDebugToggles(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, nil, &debug)
	if h.debug {
		t.Fatalf("expected debug false initially")
	}
	on := true
	h.SetDebug(&on)
	if !h.debug {
		t.Errorf("SetDebug(true) did not take effect")
	}
}

func TestWithAttrsPreservesMutex(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, nil, &debug)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "agent")})
	if child.(*LogHandler).mu != h.mu {
		t.Errorf("WithAttrs handler does not share the parent's mutex")
	}
	log := slog.New(child)
	log.Warn("policy denied request")
	if !strings.Contains(buf.String(), "policy denied request") {
		t.Errorf("WithAttrs handler did not write through to the same writer")
	}
}
