package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Meta is the JSON metadata stored on the second line of the pidfile.
// StartUnix pins the recorded PID to a concrete process start time so a
// recycled PID is not mistaken for the daemon.
type Meta struct {
	Name      string `json:"name"`
	StartUnix int64  `json:"start_unix,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	LogFile   string `json:"log_file,omitempty"`
}

// Registry owns the pidfile for one daemon instance. The file holds the
// PID on the first line and a Meta JSON document on the second.
type Registry struct {
	Path     string
	launcher Launcher
	logger   *slog.Logger
}

func NewRegistry(path string, l Launcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{Path: path, launcher: l, logger: logger}
}

// Write records pid and meta. Parent directories are created as needed.
func (r *Registry) Write(pid int, meta Meta) error {
	if r.Path == "" {
		return fmt.Errorf("pidfile path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o750); err != nil {
		return fmt.Errorf("create pidfile dir: %w", err)
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal pidfile meta: %w", err)
	}
	data := strconv.Itoa(pid) + "\n" + string(b) + "\n"
	if err := os.WriteFile(r.Path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("write pidfile: %w", err)
	}
	return nil
}

// Read returns the recorded PID and metadata. A missing file is not an
// error: it reports (0, nil, nil), meaning no daemon was registered.
func (r *Registry) Read() (int, *Meta, error) {
	b, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("read pidfile: %w", err)
	}
	lines := strings.SplitN(strings.TrimSpace(string(b)), "\n", 2)
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || pid <= 0 {
		return 0, nil, fmt.Errorf("pidfile %s: malformed pid line %q", r.Path, lines[0])
	}
	var meta *Meta
	if len(lines) == 2 {
		var m Meta
		if err := json.Unmarshal([]byte(lines[1]), &m); err == nil {
			meta = &m
		}
	}
	return pid, meta, nil
}

// Alive reports whether the registered daemon process is still running.
// A missing pidfile means not running. A pidfile that is corrupted,
// points at a dead PID, or points at a recycled PID (start time does
// not match the recorded one) is stale: it is removed as a side effect
// so later starts see a clean slate, and Alive reports false.
func (r *Registry) Alive() (int, *Meta, bool) {
	pid, meta, err := r.Read()
	if err != nil {
		r.logger.Warn("removing unreadable pidfile", "path", r.Path, "error", err)
		_ = r.Clear()
		return 0, nil, false
	}
	if pid == 0 {
		return 0, nil, false
	}
	if !r.launcher.Alive(pid) {
		r.logger.Info("removing stale pidfile", "path", r.Path, "pid", pid)
		_ = r.Clear()
		return 0, nil, false
	}
	if meta != nil && meta.StartUnix > 0 {
		if now := r.launcher.StartTime(pid); now > 0 && now != meta.StartUnix {
			r.logger.Info("pidfile points at recycled pid, removing",
				"path", r.Path, "pid", pid, "recorded_start", meta.StartUnix, "actual_start", now)
			_ = r.Clear()
			return 0, nil, false
		}
	}
	return pid, meta, true
}

// Clear removes the pidfile. A missing file is not an error.
func (r *Registry) Clear() error {
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pidfile: %w", err)
	}
	return nil
}
