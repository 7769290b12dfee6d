package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/models"
)

func (c *command) modelClient() *models.Client {
	return models.New(models.Config{
		BaseURL: c.cfg.Models.BaseURL,
		Logger:  c.logger,
	})
}

// ModelPull downloads a model, streaming progress to stderr.
func (c *command) ModelPull(out io.Writer, name string) error {
	mc := c.modelClient()
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	var lastStatus string
	began := time.Now()
	err := mc.Pull(context.Background(), name, func(p models.PullProgress) {
		switch {
		case p.Total > 0:
			_, _ = fmt.Fprintf(os.Stderr, "\r%s %3.0f%%", p.Status,
				float64(p.Completed)*100/float64(p.Total))
		case p.Status != lastStatus:
			if lastStatus != "" {
				_, _ = fmt.Fprintln(os.Stderr)
			}
			_, _ = fmt.Fprint(os.Stderr, p.Status)
		}
		lastStatus = p.Status
	})
	if lastStatus != "" {
		_, _ = fmt.Fprintln(os.Stderr)
	}
	rec.Record(history.Finish(history.EventModelPull, name, began, err))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "pulled %s\n", name)
	return nil
}

// ModelList prints the installed models as a table.
func (c *command) ModelList(out io.Writer) error {
	installed, err := c.modelClient().List(context.Background())
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		_, _ = fmt.Fprintln(out, "no models installed")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, m := range installed {
		modified := "-"
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, humanBytes(m.Size), modified)
	}
	return w.Flush()
}

// ModelRemove deletes one installed model.
func (c *command) ModelRemove(out io.Writer, name string) error {
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	err := c.modelClient().Remove(context.Background(), name)
	rec.Record(history.Finish(history.EventModelDelete, name, began, err))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "removed %s\n", name)
	return nil
}

// ModelPrune removes models absent from the keep list. The configured
// keep list and --keep flags are combined.
func (c *command) ModelPrune(out io.Writer, f ModelPruneFlags) error {
	keep := append(append([]string{}, c.cfg.Models.Keep...), f.Keep...)
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	removed, err := c.modelClient().Prune(context.Background(), keep, f.DryRun)
	if !f.DryRun && len(removed) > 0 {
		rec.Record(history.Finish(history.EventModelDelete,
			fmt.Sprintf("prune: %d models", len(removed)), began, err))
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintln(out, "nothing to prune")
		return nil
	}
	verb := "removed"
	if f.DryRun {
		verb = "would remove"
	}
	for _, name := range removed {
		_, _ = fmt.Fprintf(out, "%s %s\n", verb, name)
	}
	return nil
}

// ModelCheck smoke-tests a model with a tiny generation.
func (c *command) ModelCheck(out io.Writer, name string) error {
	res, err := c.modelClient().Check(context.Background(), name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "model %s answered in %.1fs: %s\n",
		res.Model, res.Elapsed.Seconds(), oneLine(res.Response))
	return nil
}
