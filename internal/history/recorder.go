package history

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const sendTimeout = 3 * time.Second

// Recorder wraps a Sink with best-effort semantics: a failed send is
// logged and swallowed so history never breaks the operation being
// recorded. A nil Recorder is valid and records nothing.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	if sink == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger}
}

// Record sends e with a bounded timeout, independent of any caller
// context so a cancelled operation still gets its final event.
func (r *Recorder) Record(e Event) {
	if r == nil || r.sink == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := r.sink.Send(ctx, e); err != nil {
		r.logger.Warn("history record failed", "type", e.Type, "error", err)
	}
}

// Recent reads events back when the sink supports it.
func (r *Recorder) Recent(ctx context.Context, limit int, types ...EventType) ([]Event, error) {
	if r == nil || r.sink == nil {
		return nil, nil
	}
	l, ok := r.sink.(Lister)
	if !ok {
		return nil, nil
	}
	return l.Recent(ctx, limit, types...)
}

// Close releases the sink when it holds resources.
func (r *Recorder) Close() error {
	if r == nil || r.sink == nil {
		return nil
	}
	if c, ok := r.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
