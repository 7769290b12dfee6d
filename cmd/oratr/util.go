package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/history/factory"
)

func printJSON(out io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	_, _ = fmt.Fprintln(out, string(b))
}

// historyRecorder builds the configured recorder. Returns nil, which
// records nothing, when history is disabled or the sink cannot open;
// history never blocks an operation.
func (c *command) historyRecorder() *history.Recorder {
	if !c.cfg.History.Enabled {
		return nil
	}
	sink, err := factory.NewSink(c.cfg.History.DSN, c.cfg.History.Table)
	if err != nil {
		c.logger.Warn("history sink unavailable", "error", err)
		return nil
	}
	return history.NewRecorder(sink, c.logger)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// oneLine collapses whitespace for single-line reporting.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
