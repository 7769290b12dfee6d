package history

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// EventType defines the kind of recorded operation.
type EventType string

const (
	EventDaemonStart EventType = "daemon_start"
	EventDaemonStop  EventType = "daemon_stop"
	EventSynthesize  EventType = "synthesize"
	EventSay         EventType = "say"
	EventTranscribe  EventType = "transcribe"
	EventRecord      EventType = "record"
	EventModelPull   EventType = "model_pull"
	EventModelDelete EventType = "model_delete"
)

// Event represents one completed operation to be exported to external
// systems for auditing or statistics.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Detail     string    `json:"detail"` // voice, model or file involved
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"` // "ok" or "error"
	Error      string    `json:"error,omitempty"`
}

// Finish builds an event for an operation that started at `started`
// and ended now with err.
func Finish(t EventType, detail string, started time.Time, err error) Event {
	e := Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Detail:     detail,
		DurationMS: time.Since(started).Milliseconds(),
		Status:     "ok",
	}
	if err != nil {
		e.Status = "error"
		e.Error = err.Error()
	}
	return e
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable rejects table or index names that cannot be safely
// interpolated into DDL and insert statements.
func ValidateTable(name string) error {
	if !tableRe.MatchString(name) {
		return fmt.Errorf("invalid history table name %q", name)
	}
	return nil
}

// Lister is implemented by sinks that can read events back. The SQL
// backed sinks implement it; the push-only ones do not.
type Lister interface {
	Recent(ctx context.Context, limit int, types ...EventType) ([]Event, error)
}
