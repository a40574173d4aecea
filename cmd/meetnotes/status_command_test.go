package main

import (
	"encoding/json"
	"strings"
	"testing"

	"meetnotes/internal/api"
)

func TestStatusWithDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "Pending")
	requireContains(t, out, "Emailing")

	out, err = env.run(t, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.Recording.Active {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStatusWithoutDaemonFallsBackToDatabase(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, env.cfg.DatabasePath())
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "running", false)
	if !strings.Contains(line, "[OK] running") || strings.Contains(line, "\x1b[") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Daemon", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}
