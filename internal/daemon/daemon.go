// Package daemon supervises a single long-running synthesis daemon:
// launching it detached, tracking it through a pidfile, probing its
// HTTP health endpoint, and stopping it with bounded escalation.
package daemon

import (
	"errors"
	"log/slog"
	"time"
)

// Defaults for the supervisor's timing knobs.
const (
	DefaultStartupDeadline = 120 * time.Second
	DefaultProbeInterval   = time.Second
	DefaultShutdownGrace   = 2 * time.Second
	DefaultTermGrace       = 3 * time.Second
	DefaultRestartPause    = time.Second
)

// State is the supervisor's view of the daemon lifecycle.
type State string

const (
	StateStopped          State = "stopped"
	StateStarting         State = "starting"
	StateReady            State = "ready"
	StateStartingTimedOut State = "starting_timed_out"
	StateStopping         State = "stopping"
)

var (
	// ErrNotRunning is returned by Status when no live daemon exists.
	ErrNotRunning = errors.New("daemon is not running")
	// ErrStartTimeout is returned by Start when the daemon did not
	// answer its readiness probe before the startup deadline. The
	// process is left running; it may still become ready later.
	ErrStartTimeout = errors.New("daemon did not become ready before the startup deadline")
)

// Config describes one supervised daemon instance.
type Config struct {
	Name    string   // used in pidfile metadata and logs
	Command []string // argv of the daemon process
	Env     []string // extra environment for the child
	WorkDir string
	PIDFile string
	LogFile string // child stdout and stderr are appended here
	BaseURL string // HTTP base the daemon serves on

	StartupDeadline time.Duration
	ProbeInterval   time.Duration
	ShutdownGrace   time.Duration // wait after the HTTP shutdown request
	TermGrace       time.Duration // wait after SIGTERM before SIGKILL
	RestartPause    time.Duration // pause between stop and start on restart

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "daemon"
	}
	if c.StartupDeadline <= 0 {
		c.StartupDeadline = DefaultStartupDeadline
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.TermGrace <= 0 {
		c.TermGrace = DefaultTermGrace
	}
	if c.RestartPause <= 0 {
		c.RestartPause = DefaultRestartPause
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
