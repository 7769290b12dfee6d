package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/oratr/internal/config"
)

func TestConfigInitWritesStarter(t *testing.T) {
	c := testCommand(t)
	out := filepath.Join(t.TempDir(), "nested", "config.toml")
	var buf bytes.Buffer
	if err := c.ConfigInit(&buf, ConfigInitFlags{Out: out}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(buf.String(), out) {
		t.Fatalf("output does not name the file: %q", buf.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("starter not written: %v", err)
	}
	if !strings.HasPrefix(string(b), "# oratr configuration") {
		t.Fatalf("unexpected starter head: %q", string(b[:40]))
	}
	// The written file must load cleanly.
	if _, err := config.Load(out); err != nil {
		t.Fatalf("written starter does not load: %v", err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	c := testCommand(t)
	out := filepath.Join(t.TempDir(), "config.toml")
	if err := c.ConfigInit(&bytes.Buffer{}, ConfigInitFlags{Out: out}); err != nil {
		t.Fatalf("first init: %v", err)
	}
	err := c.ConfigInit(&bytes.Buffer{}, ConfigInitFlags{Out: out})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}
	if err := c.ConfigInit(&bytes.Buffer{}, ConfigInitFlags{Out: out, Force: true}); err != nil {
		t.Fatalf("forced init: %v", err)
	}
}

func TestConfigPathPrefersExplicitFlag(t *testing.T) {
	c := testCommand(t)
	var buf bytes.Buffer
	if err := c.ConfigPath(&buf); err != nil {
		t.Fatalf("path: %v", err)
	}
	want := filepath.Join(c.cfg.BaseDir, "config.toml")
	if strings.TrimSpace(buf.String()) != want {
		t.Fatalf("path = %q, want %q", buf.String(), want)
	}

	c.flags.ConfigPath = "/etc/oratr.toml"
	buf.Reset()
	if err := c.ConfigPath(&buf); err != nil {
		t.Fatalf("path: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "/etc/oratr.toml" {
		t.Fatalf("path = %q, want explicit flag value", buf.String())
	}
}
