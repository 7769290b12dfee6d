package daemon

import (
	"time"

	"github.com/loykin/oratr/internal/metrics"
	"github.com/loykin/oratr/pkg/client"
)

// Status is a point-in-time snapshot of the supervised daemon.
type Status struct {
	Name      string               `json:"name"`
	State     State                `json:"state"`
	PID       int                  `json:"pid,omitempty"`
	StartedAt time.Time            `json:"started_at"`
	BaseURL   string               `json:"base_url,omitempty"`
	LogFile   string               `json:"log_file,omitempty"`
	Health    *client.HealthStatus `json:"health,omitempty"`
	Usage     *metrics.Usage       `json:"usage,omitempty"`
}

// Uptime is the time since the daemon process started, or 0 when the
// start time is unknown.
func (s *Status) Uptime() time.Duration {
	if s == nil || s.StartedAt.IsZero() {
		return 0
	}
	return time.Since(s.StartedAt)
}
