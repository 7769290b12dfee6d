package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters (lumberjack semantics).
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// FileConfig describes rotated file output. If Path is empty and Dir is set,
// the file will be Dir/oratr.log.
type FileConfig struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	Path       string `json:"path" mapstructure:"path"` // explicit path overrides Dir
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Config describes structured logging for the CLI and the daemon.
// Level is one of debug, info, warn, error (default warn for CLI use).
// Color enables the ANSI console handler when writing to a terminal.
type Config struct {
	Level string     `json:"level" mapstructure:"level"`
	Color bool       `json:"color" mapstructure:"color"`
	File  FileConfig `json:"file" mapstructure:"file"`
}

// ParseLevel maps a config string to a slog.Level, defaulting to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New builds a slog.Logger from the config. Console output goes to w
// (typically os.Stderr); when File is configured a rotating file writer is
// attached instead of the console.
func (c Config) New(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	if fw := c.File.writer(); fw != nil {
		return slog.New(slog.NewTextHandler(fw, opts))
	}
	if w == nil {
		w = os.Stderr
	}
	if c.Color {
		return slog.New(NewColorTextHandler(w, opts, true))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// writer returns a rotating writer for the configured file, or nil when no
// file output is configured.
func (c FileConfig) writer() io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, "oratr.log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
