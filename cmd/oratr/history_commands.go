package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/history/factory"
)

// History lists recent recorded operations from the configured sink.
func (c *command) History(out io.Writer, f HistoryFlags) error {
	if !c.cfg.History.Enabled {
		return errors.New("history is disabled; set enabled = true under [history] in the config")
	}
	sink, err := factory.NewSink(c.cfg.History.DSN, c.cfg.History.Table)
	if err != nil {
		return err
	}
	rec := history.NewRecorder(sink, c.logger)
	defer func() { _ = rec.Close() }()

	var kinds []history.EventType
	for _, k := range strings.Split(f.Kind, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, history.EventType(k))
		}
	}
	events, err := rec.Recent(context.Background(), f.Limit, kinds...)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "no history")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tKIND\tSTATUS\tDURATION\tDETAIL")
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			e.Type, e.Status,
			time.Duration(e.DurationMS)*time.Millisecond,
			e.Detail)
	}
	return w.Flush()
}
