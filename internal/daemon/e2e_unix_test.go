//go:build !windows

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

// Exercises the full lifecycle against a real detached process. The
// daemon's HTTP surface is played by a stub server that only becomes
// healthy after a delay and acknowledges /shutdown without exiting, so
// stop has to escalate to signals.
func TestRealProcessLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real process test in short mode")
	}
	stub := newStubAPI(t, false)
	time.AfterFunc(600*time.Millisecond, func() { stub.setHealthy(true) })

	dir := t.TempDir()
	cfg := testConfig(t, stub.URL())
	cfg.Command = []string{"/bin/sh", "-c", "sleep 30"}
	cfg.PIDFile = filepath.Join(dir, "daemon.pid")
	cfg.LogFile = filepath.Join(dir, "daemon.log")
	cfg.StartupDeadline = 5 * time.Second
	cfg.TermGrace = 2 * time.Second
	sup := New(cfg)

	st, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if st.State != StateReady {
		t.Fatalf("state = %s, want %s", st.State, StateReady)
	}
	if err := syscall.Kill(st.PID, 0); err != nil {
		t.Fatalf("pid %d should be alive: %v", st.PID, err)
	}
	pid, meta, ok := sup.Registry().Alive()
	if !ok || pid != st.PID {
		t.Fatalf("registry alive = (%d,%v), want (%d,true)", pid, ok, st.PID)
	}
	if meta == nil || meta.StartUnix == 0 {
		t.Errorf("registry should record a real start time, got %+v", meta)
	}

	if err := sup.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := os.Stat(cfg.PIDFile); !os.IsNotExist(err) {
		t.Errorf("pidfile should be removed after stop")
	}
	if err := syscall.Kill(st.PID, 0); err == nil {
		t.Errorf("pid %d still alive after stop", st.PID)
	} else if !errors.Is(err, syscall.ESRCH) {
		t.Logf("kill(0) after stop: %v", err)
	}
}

// A child that ignores SIGTERM forces the final SIGKILL rung. Ignored
// dispositions survive exec, so the sleep itself ignores TERM.
func TestRealProcessKillEscalation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real process test in short mode")
	}
	stub := newStubAPI(t, true)

	dir := t.TempDir()
	cfg := testConfig(t, stub.URL())
	cfg.Command = []string{"/bin/sh", "-c", `trap "" TERM; exec sleep 30`}
	cfg.PIDFile = filepath.Join(dir, "daemon.pid")
	sup := New(cfg)

	st, err := sup.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sup.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Give the kernel a beat to reap, then the pid must be gone.
	time.Sleep(100 * time.Millisecond)
	if err := syscall.Kill(st.PID, 0); err == nil {
		t.Errorf("pid %d survived the kill escalation", st.PID)
	}
}

// Two supervisors sharing a pidfile agree on who is running: the
// second start is a no-op against the first one's process.
func TestRealProcessSharedPIDFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real process test in short mode")
	}
	stub := newStubAPI(t, true)

	dir := t.TempDir()
	cfg := testConfig(t, stub.URL())
	cfg.Command = []string{"/bin/sh", "-c", "sleep 30"}
	cfg.PIDFile = filepath.Join(dir, "daemon.pid")

	first := New(cfg)
	st, err := first.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = first.Stop(context.Background()) }()

	second := New(cfg)
	st2, err := second.Start(context.Background())
	if err != nil {
		t.Fatalf("second supervisor start: %v", err)
	}
	if st2.PID != st.PID {
		t.Errorf("second supervisor launched pid %d, want existing %d", st2.PID, st.PID)
	}
}
