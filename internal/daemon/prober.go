package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Probe asks once whether the daemon is ready. A nil error means ready;
// any error means "not yet".
type Probe func(ctx context.Context) error

// HTTPReadyProbe builds a Probe against GET baseURL/health. Any 2xx
// answer counts as ready. Connection errors during startup are the
// normal case, not failures.
func HTTPReadyProbe(baseURL string, timeout time.Duration) Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c := &http.Client{Timeout: timeout}
	url := baseURL + "/health"
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("health returned %d", resp.StatusCode)
		}
		return nil
	}
}

// WaitForReady polls probe every interval until it succeeds, the
// deadline elapses, or ctx is cancelled. The first poll happens
// immediately. It returns true only when a probe succeeded; a deadline
// hit after any number of failed polls returns false without error,
// the caller decides what a non-ready daemon means.
func WaitForReady(ctx context.Context, probe Probe, interval, deadline time.Duration) bool {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return false
		}
		if err := probe(ctx); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
