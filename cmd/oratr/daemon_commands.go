package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/loykin/oratr/internal/daemon"
	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/server"
)

// supervisor builds the daemon supervisor from config. When no launch
// command is configured, the daemon is this binary re-executed as
// "daemon run".
func (c *command) supervisor() (*daemon.Supervisor, error) {
	env, err := c.cfg.GlobalEnv()
	if err != nil {
		return nil, err
	}
	argv := c.cfg.Daemon.Command
	if len(argv) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		argv = []string{exe, "daemon", "run"}
		if c.flags.ConfigPath != "" {
			argv = append(argv, "--config", c.flags.ConfigPath)
		}
	}
	return daemon.New(daemon.Config{
		Name:            "oratr-daemon",
		Command:         argv,
		Env:             env,
		PIDFile:         c.cfg.Daemon.PIDFile,
		LogFile:         c.cfg.Daemon.LogFile,
		BaseURL:         c.cfg.DaemonBaseURL(),
		StartupDeadline: c.cfg.Daemon.StartupDeadline,
		ProbeInterval:   c.cfg.Daemon.ProbeInterval,
		ShutdownGrace:   c.cfg.Daemon.ShutdownGrace,
		TermGrace:       c.cfg.Daemon.TermGrace,
		Logger:          c.logger,
	}), nil
}

// DaemonStart launches the daemon and waits until it answers health
// probes. Starting an already-running daemon reports it and succeeds.
func (c *command) DaemonStart(out io.Writer) error {
	sup, err := c.supervisor()
	if err != nil {
		return err
	}
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	st, err := sup.Start(context.Background())
	rec.Record(history.Finish(history.EventDaemonStart, c.cfg.DaemonBaseURL(), began, err))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "daemon %s (pid %d)\n", st.State, st.PID)
	return nil
}

// DaemonStop stops the daemon. Stopping a stopped daemon is a no-op.
func (c *command) DaemonStop(out io.Writer) error {
	sup, err := c.supervisor()
	if err != nil {
		return err
	}
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	err = sup.Stop(context.Background())
	rec.Record(history.Finish(history.EventDaemonStop, c.cfg.DaemonBaseURL(), began, err))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "daemon stopped")
	return nil
}

// DaemonStatus prints the daemon status as JSON. A stopped daemon is
// exit code 1 so scripts can branch without parsing.
func (c *command) DaemonStatus(out io.Writer) error {
	sup, err := c.supervisor()
	if err != nil {
		return err
	}
	st, err := sup.Status(context.Background())
	if errors.Is(err, daemon.ErrNotRunning) {
		return &exitCodeError{code: 1, err: errors.New("daemon is not running")}
	}
	if err != nil {
		return err
	}
	printJSON(out, st)
	return nil
}

func (c *command) DaemonRestart(out io.Writer) error {
	sup, err := c.supervisor()
	if err != nil {
		return err
	}
	st, err := sup.Restart(context.Background())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "daemon %s (pid %d)\n", st.State, st.PID)
	return nil
}

// DaemonRun serves synthesis in the foreground until SIGINT/SIGTERM,
// an HTTP shutdown request, or the idle timeout.
func (c *command) DaemonRun() error {
	srv, err := server.New(server.Config{
		Host:        c.cfg.Daemon.Host,
		Port:        c.cfg.Daemon.Port,
		IdleTimeout: c.cfg.IdleTimeout(),
		Engine:      c.ttsEngine(),
		History:     c.historyRecorder(),
		Logger:      c.logger,
	})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

// DaemonLogs prints the trailing daemon log, optionally following it.
func (c *command) DaemonLogs(out io.Writer, f DaemonLogsFlags) error {
	path := c.cfg.Daemon.LogFile
	lines, offset, err := tailLines(path, f.Lines)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no daemon log at %s yet", path)
		}
		return err
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}
	if !f.Follow {
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followFile(ctx, out, path, offset)
}

// tailLines returns the last n lines of the file and the file size the
// read observed. Only the trailing 256 KiB are examined.
func tailLines(path string, n int) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := st.Size()
	const window = 256 << 10
	var off int64
	if size > window {
		off = size - window
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return nil, 0, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, err
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, size, nil
	}
	lines := strings.Split(text, "\n")
	if off > 0 && len(lines) > 1 {
		lines = lines[1:] // first line is likely clipped by the window
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, size, nil
}

// followFile polls for appended data until ctx is cancelled. A
// shrinking file means rotation; reading restarts from the top.
func followFile(ctx context.Context, out io.Writer, path string, offset int64) error {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		size := st.Size()
		if size < offset {
			offset = 0
		}
		if size == offset {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		if _, err := f.Seek(offset, io.SeekStart); err == nil {
			n, _ := io.Copy(out, f)
			offset += n
		}
		_ = f.Close()
	}
}
