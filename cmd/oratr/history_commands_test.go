package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/loykin/oratr/internal/history"
)

func TestHistoryDisabled(t *testing.T) {
	c := testCommand(t)
	err := c.History(&bytes.Buffer{}, HistoryFlags{Limit: 10})
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("err = %v", err)
	}
}

func TestHistoryListsRecordedEvents(t *testing.T) {
	c := testCommand(t)
	c.cfg.History.Enabled = true

	rec := c.historyRecorder()
	if rec == nil {
		t.Fatalf("recorder should open the sqlite sink")
	}
	began := time.Now().Add(-50 * time.Millisecond)
	rec.Record(history.Finish(history.EventSay, "voice=af_heart chars=5", began, nil))
	rec.Record(history.Finish(history.EventTranscribe, "note.wav", began, nil))
	if err := rec.Close(); err != nil {
		t.Fatalf("close recorder: %v", err)
	}

	var buf bytes.Buffer
	if err := c.History(&buf, HistoryFlags{Limit: 10}); err != nil {
		t.Fatalf("history: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"KIND", "say", "transcribe", "note.wav"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryKindFilter(t *testing.T) {
	c := testCommand(t)
	c.cfg.History.Enabled = true

	rec := c.historyRecorder()
	rec.Record(history.Finish(history.EventSay, "a", time.Now(), nil))
	rec.Record(history.Finish(history.EventRecord, "b.wav", time.Now(), nil))
	if err := rec.Close(); err != nil {
		t.Fatalf("close recorder: %v", err)
	}

	var buf bytes.Buffer
	if err := c.History(&buf, HistoryFlags{Limit: 10, Kind: "record"}); err != nil {
		t.Fatalf("history: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "b.wav") {
		t.Errorf("filtered output missing record event:\n%s", out)
	}
	if strings.Contains(out, "say") {
		t.Errorf("filter leaked other kinds:\n%s", out)
	}
}
