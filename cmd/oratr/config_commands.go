package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/loykin/oratr/internal/config"
)

// ConfigInit writes a commented starter config file so users do not
// have to remember the TOML shape.
func (c *command) ConfigInit(out io.Writer, f ConfigInitFlags) error {
	path := f.Out
	if path == "" {
		path = filepath.Join(c.cfg.BaseDir, "config.toml")
	}
	if _, err := os.Stat(path); err == nil && !f.Force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, config.Starter(), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", path)
	_, _ = fmt.Fprintln(out, "edit it and run: oratr daemon start")
	return nil
}

// ConfigPath prints the config file path in effect, so scripts and
// humans can find it regardless of --config or ORATR_BASE_DIR.
func (c *command) ConfigPath(out io.Writer) error {
	path := c.flags.ConfigPath
	if path == "" {
		path = filepath.Join(c.cfg.BaseDir, "config.toml")
	}
	_, _ = fmt.Fprintln(out, path)
	return nil
}
