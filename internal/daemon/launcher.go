package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// LaunchSpec describes the child process to start.
type LaunchSpec struct {
	Command []string
	Env     []string // the child's full environment; nil inherits the supervisor's
	WorkDir string
	LogFile string // stdout and stderr are appended here when set
}

// Launcher starts and signals the daemon process. The supervisor only
// talks to the OS through this interface, so tests can swap in a fake
// backend and exercise the full lifecycle without real processes.
type Launcher interface {
	// Start launches the child detached and returns its PID. The child
	// must survive the supervisor exiting.
	Start(spec LaunchSpec) (int, error)
	// Signal delivers sig to the process (and its group where the
	// platform supports it).
	Signal(pid int, sig syscall.Signal) error
	// Alive reports whether pid refers to a live, non-zombie process.
	Alive(pid int) bool
	// StartTime returns the process start time as Unix seconds, or 0
	// when it cannot be determined.
	StartTime(pid int) int64
}

// NewExecLauncher returns the Launcher backed by real processes.
func NewExecLauncher() Launcher { return execLauncher{} }

type execLauncher struct{}

func (execLauncher) Start(spec LaunchSpec) (int, error) {
	if len(spec.Command) == 0 {
		return 0, fmt.Errorf("launch: empty command")
	}
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.WorkDir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	cmd.Stdin = nil
	if spec.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogFile), 0o750); err != nil {
			return 0, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(spec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		cmd.Stdout = f
		cmd.Stderr = f
	}
	configureDetachedAttrs(cmd)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", spec.Command[0], err)
	}
	pid := cmd.Process.Pid
	// Reap the child if it exits while we are still around. Once the
	// supervisor process is gone the detached child is reparented and
	// reaped by init.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
