package main

import (
	"testing"
)

func TestDoctorOffline(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "doctor", "--offline")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Job database")
	requireContains(t, out, "not running at")
}

func TestDoctorFailsOnMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t, false)
	t.Setenv("PATH", t.TempDir())

	out, err := env.run(t, "doctor", "--offline")
	if err == nil {
		t.Fatal("expected doctor to fail without uvx")
	}
	requireContains(t, out, "[ERROR]")
}

func TestDoctorReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _ := env.run(t, "doctor", "--offline")
	requireContains(t, out, "[OK] running at "+env.cfg.Paths.APIBind)
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}
