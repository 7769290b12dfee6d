package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"github.com/loykin/oratr/internal/metrics"
	"github.com/loykin/oratr/pkg/client"
)

// Supervisor manages the lifecycle of a single daemon instance: at most
// one live process per pidfile, started detached and stopped with
// bounded escalation.
type Supervisor struct {
	cfg      Config
	launcher Launcher
	registry *Registry
	probe    Probe
	api      *client.Client
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New returns a Supervisor backed by real processes.
func New(cfg Config) *Supervisor {
	return NewWithLauncher(cfg, NewExecLauncher())
}

// NewWithLauncher lets callers substitute the process backend, which is
// how the lifecycle is tested without real daemons.
func NewWithLauncher(cfg Config, l Launcher) *Supervisor {
	cfg = cfg.withDefaults()
	s := &Supervisor{
		cfg:      cfg,
		launcher: l,
		logger:   cfg.Logger,
		state:    StateStopped,
	}
	s.registry = NewRegistry(cfg.PIDFile, l, cfg.Logger)
	s.probe = HTTPReadyProbe(cfg.BaseURL, 2*time.Second)
	s.api = client.New(client.Config{BaseURL: cfg.BaseURL, Timeout: 5 * time.Second, Logger: cfg.Logger})
	return s
}

// Registry exposes the pidfile registry, mainly for status tooling.
func (s *Supervisor) Registry() *Registry { return s.registry }

// State returns the supervisor's view of the lifecycle.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the daemon and waits until it answers its health
// probe or the startup deadline elapses. Starting over a live instance
// is an idempotent no-op that reports the instance's current health; a
// live but unhealthy instance is reported with a warning rather than
// replaced. On deadline the process is left running and ErrStartTimeout
// is returned.
func (s *Supervisor) Start(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pid, meta, ok := s.registry.Alive(); ok {
		st := s.snapshot(ctx, pid, meta)
		if st.Health == nil {
			s.logger.Warn("daemon already running but not answering health",
				"pid", pid, "base_url", st.BaseURL)
		} else {
			s.logger.Info("daemon already running", "pid", pid)
		}
		s.state = st.State
		metrics.IncDaemonStart("already_running")
		return st, nil
	}

	if len(s.cfg.Command) == 0 {
		return nil, fmt.Errorf("daemon start: no command configured")
	}

	s.state = StateStarting
	began := time.Now()
	pid, err := s.launcher.Start(LaunchSpec{
		Command: s.cfg.Command,
		Env:     s.cfg.Env,
		WorkDir: s.cfg.WorkDir,
		LogFile: s.cfg.LogFile,
	})
	if err != nil {
		s.state = StateStopped
		metrics.IncDaemonStart("error")
		return nil, fmt.Errorf("daemon start: %w", err)
	}
	meta := Meta{
		Name:      s.cfg.Name,
		StartUnix: s.launcher.StartTime(pid),
		BaseURL:   s.cfg.BaseURL,
		LogFile:   s.cfg.LogFile,
	}
	if err := s.registry.Write(pid, meta); err != nil {
		// Without a pidfile the daemon would be unstoppable later, so
		// take it back down instead of leaving an orphan.
		_ = s.launcher.Signal(pid, syscall.SIGKILL)
		s.state = StateStopped
		metrics.IncDaemonStart("error")
		return nil, err
	}
	s.logger.Info("daemon launched", "name", s.cfg.Name, "pid", pid, "log", s.cfg.LogFile)

	if !WaitForReady(ctx, s.probe, s.cfg.ProbeInterval, s.cfg.StartupDeadline) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.state = StateStartingTimedOut
		metrics.IncDaemonStart("timeout")
		s.logger.Warn("daemon not ready before deadline, leaving it running",
			"pid", pid, "deadline", s.cfg.StartupDeadline)
		return &Status{Name: s.cfg.Name, State: StateStartingTimedOut, PID: pid,
			StartedAt: began, BaseURL: s.cfg.BaseURL, LogFile: s.cfg.LogFile}, ErrStartTimeout
	}

	s.state = StateReady
	took := time.Since(began)
	metrics.IncDaemonStart("ok")
	metrics.ObserveStartupDuration(took.Seconds())
	s.logger.Info("daemon ready", "pid", pid, "took", took.Round(time.Millisecond))
	return &Status{Name: s.cfg.Name, State: StateReady, PID: pid,
		StartedAt: began, BaseURL: s.cfg.BaseURL, LogFile: s.cfg.LogFile}, nil
}

// Stop brings the daemon down, escalating from the HTTP shutdown
// endpoint through SIGTERM to SIGKILL, and removes the pidfile in every
// outcome. Stopping a daemon that is not running is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid, _, ok := s.registry.Alive()
	if !ok {
		s.state = StateStopped
		s.logger.Info("daemon is not running")
		metrics.IncDaemonStop("not_running")
		return nil
	}
	s.state = StateStopping
	outcome := "graceful"

	// Polite first: ask the daemon to exit over HTTP.
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownGrace)
	if err := s.api.Shutdown(sctx); err != nil {
		s.logger.Debug("http shutdown request failed", "error", err)
	}
	cancel()

	if !s.waitGone(ctx, pid, s.cfg.ShutdownGrace) {
		outcome = "term"
		s.logger.Info("daemon still running, sending SIGTERM", "pid", pid)
		if err := s.launcher.Signal(pid, syscall.SIGTERM); err != nil {
			s.logger.Debug("SIGTERM delivery failed", "pid", pid, "error", err)
		}
		if !s.waitGone(ctx, pid, s.cfg.TermGrace) {
			outcome = "kill"
			s.logger.Warn("daemon ignored SIGTERM, sending SIGKILL", "pid", pid)
			_ = s.launcher.Signal(pid, syscall.SIGKILL)
			if !s.waitGone(ctx, pid, time.Second) {
				_ = s.registry.Clear()
				s.state = StateStopped
				metrics.IncDaemonStop("error")
				return fmt.Errorf("daemon pid %d survived SIGKILL", pid)
			}
		}
	}

	_ = s.registry.Clear()
	s.state = StateStopped
	metrics.IncDaemonStop(outcome)
	s.logger.Info("daemon stopped", "pid", pid, "outcome", outcome)
	return nil
}

// Restart stops any running daemon and starts a fresh one. From the
// stopped state it behaves exactly like Start.
func (s *Supervisor) Restart(ctx context.Context) (*Status, error) {
	if err := s.Stop(ctx); err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.cfg.RestartPause):
	}
	return s.Start(ctx)
}

// Status reports the live daemon, including best-effort health and
// resource usage. It returns ErrNotRunning when there is none; a stale
// pidfile is cleaned up on the way.
func (s *Supervisor) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid, meta, ok := s.registry.Alive()
	if !ok {
		s.state = StateStopped
		return nil, ErrNotRunning
	}
	st := s.snapshot(ctx, pid, meta)
	s.state = st.State
	return st, nil
}

// snapshot assembles a Status for a process known to be alive. Health
// and usage lookups are best-effort; their absence is part of the
// answer.
func (s *Supervisor) snapshot(ctx context.Context, pid int, meta *Meta) *Status {
	st := &Status{Name: s.cfg.Name, PID: pid, BaseURL: s.cfg.BaseURL, LogFile: s.cfg.LogFile}
	if meta != nil {
		if meta.Name != "" {
			st.Name = meta.Name
		}
		if meta.StartUnix > 0 {
			st.StartedAt = time.Unix(meta.StartUnix, 0)
		}
		if meta.BaseURL != "" {
			st.BaseURL = meta.BaseURL
		}
		if meta.LogFile != "" {
			st.LogFile = meta.LogFile
		}
	}
	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if h, err := s.api.Health(hctx); err == nil {
		st.Health = h
		st.State = StateReady
	} else {
		// Alive but not answering: either still warming up or wedged.
		st.State = StateStarting
		s.logger.Debug("health probe failed", "pid", pid, "error", err)
	}
	if u, err := metrics.Sample(int32(pid)); err == nil {
		st.Usage = u
	}
	return st
}

// waitGone polls until the process exits or the window closes.
func (s *Supervisor) waitGone(ctx context.Context, pid int, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if !s.launcher.Alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !s.launcher.Alive(pid)
		case <-time.After(50 * time.Millisecond):
		}
	}
	return !s.launcher.Alive(pid)
}
