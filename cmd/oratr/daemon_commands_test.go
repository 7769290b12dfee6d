package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loykin/oratr/internal/config"
)

func testCommand(t *testing.T) *command {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.BaseDir = dir
	cfg.Daemon.PIDFile = filepath.Join(dir, "daemon.pid")
	cfg.Daemon.LogFile = filepath.Join(dir, "daemon.log")
	cfg.History.DSN = "sqlite://" + filepath.Join(dir, "history.db")
	return &command{
		flags:  &GlobalFlags{},
		cfg:    &cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func waitUntil(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func TestDaemonStatusNotRunningExitsOne(t *testing.T) {
	c := testCommand(t)
	err := c.DaemonStatus(&bytes.Buffer{})
	var ec *exitCodeError
	if !errors.As(err, &ec) || ec.code != 1 {
		t.Fatalf("err = %v, want exit code 1", err)
	}
}

func TestDaemonStopWhenStoppedIsNoop(t *testing.T) {
	c := testCommand(t)
	var buf bytes.Buffer
	if err := c.DaemonStop(&buf); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(buf.String(), "stopped") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDaemonLogsMissingFile(t *testing.T) {
	c := testCommand(t)
	err := c.DaemonLogs(&bytes.Buffer{}, DaemonLogsFlags{Lines: 10})
	if err == nil || !strings.Contains(err.Error(), "no daemon log") {
		t.Fatalf("err = %v", err)
	}
}

func TestTailLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	var content strings.Builder
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&content, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, size, err := tailLines(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 10 || lines[0] != "line 91" || lines[9] != "line 100" {
		t.Errorf("lines = %v", lines)
	}
	if size != int64(content.Len()) {
		t.Errorf("size = %d, want %d", size, content.Len())
	}

	all, _, err := tailLines(path, 0)
	if err != nil {
		t.Fatalf("tail all: %v", err)
	}
	if len(all) != 100 {
		t.Errorf("got %d lines, want 100", len(all))
	}
}

func TestTailLinesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines, size, err := tailLines(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 0 || size != 0 {
		t.Errorf("lines = %v size = %d", lines, size)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollowFilePrintsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan struct{})
	go func() {
		_ = followFile(ctx, out, path, 4)
		close(done)
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("fresh line\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	waitUntil(t, 3*time.Second, func() bool {
		return strings.Contains(out.String(), "fresh line")
	})
	if strings.Contains(out.String(), "old") {
		t.Errorf("follow replayed data before the start offset: %q", out.String())
	}
	cancel()
	<-done
}
