package oob

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "send.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestProcessSenderRunsScriptWithArgv(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	script := writeScript(t, dir, `echo "$1 $2" > `+outPath+`
`)

	var s ProcessSender
	err := s.Send(context.Background(), script, "alice@example.com", "NH7j", os.Getuid(), os.Getgid())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "alice@example.com NH7j\n"
	if string(got) != want {
		t.Fatalf("script output = %q, want %q", got, want)
	}
}

func TestProcessSenderPropagatesScriptFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "exit 1\n")

	var s ProcessSender
	if err := s.Send(context.Background(), script, "bob", "passcode", os.Getuid(), os.Getgid()); err == nil {
		t.Fatal("Send: expected error for nonzero exit, got nil")
	}
}

func TestProcessSenderKillsHungScript(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "sleep 10\n")

	var s ProcessSender
	err := s.Send(context.Background(), script, "carol", "passcode", os.Getuid(), os.Getgid())
	if err != ErrTimeout {
		t.Fatalf("Send: got %v, want ErrTimeout", err)
	}
}
