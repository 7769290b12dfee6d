package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRuntime serves just enough of the model API for the command
// handlers.
type fakeRuntime struct {
	mu        sync.Mutex
	installed []string
	deleted   []string
}

func (s *fakeRuntime) start(t *testing.T, c *command) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		type m struct {
			Name       string    `json:"name"`
			Size       int64     `json:"size"`
			ModifiedAt time.Time `json:"modified_at"`
		}
		out := struct {
			Models []m `json:"models"`
		}{Models: []m{}}
		for _, name := range s.installed {
			out.Models = append(out.Models, m{Name: name, Size: 1 << 30, ModifiedAt: time.Now()})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, _ *http.Request) {
		for _, line := range []string{
			`{"status":"pulling manifest"}`,
			`{"status":"success"}`,
		} {
			_, _ = io.WriteString(w, line+"\n")
		}
	})
	mux.HandleFunc("/api/delete", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, have := range s.installed {
			if have == req["model"] {
				s.installed = append(s.installed[:i], s.installed[i+1:]...)
				s.deleted = append(s.deleted, req["model"])
				_, _ = io.WriteString(w, `{}`)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"model":"llama3","response":"ready","done":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c.cfg.Models.BaseURL = srv.URL
}

func TestModelListTable(t *testing.T) {
	c := testCommand(t)
	(&fakeRuntime{installed: []string{"llama3:latest", "tiny:1b"}}).start(t, c)

	var buf bytes.Buffer
	if err := c.ModelList(&buf); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "llama3:latest", "tiny:1b", "1.0 GB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestModelListEmpty(t *testing.T) {
	c := testCommand(t)
	(&fakeRuntime{}).start(t, c)

	var buf bytes.Buffer
	if err := c.ModelList(&buf); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "no models installed") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestModelPull(t *testing.T) {
	c := testCommand(t)
	(&fakeRuntime{}).start(t, c)

	var buf bytes.Buffer
	if err := c.ModelPull(&buf, "llama3"); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !strings.Contains(buf.String(), "pulled llama3") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestModelRemove(t *testing.T) {
	c := testCommand(t)
	rt := &fakeRuntime{installed: []string{"old:7b"}}
	rt.start(t, c)

	var buf bytes.Buffer
	if err := c.ModelRemove(&buf, "old:7b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(rt.deleted) != 1 || rt.deleted[0] != "old:7b" {
		t.Errorf("deleted = %v", rt.deleted)
	}

	if err := c.ModelRemove(&bytes.Buffer{}, "old:7b"); err == nil {
		t.Fatalf("removing a missing model should fail")
	}
}

func TestModelPruneDryRun(t *testing.T) {
	c := testCommand(t)
	rt := &fakeRuntime{installed: []string{"llama3:latest", "old:7b"}}
	rt.start(t, c)
	c.cfg.Models.Keep = []string{"llama3"}

	var buf bytes.Buffer
	if err := c.ModelPrune(&buf, ModelPruneFlags{DryRun: true}); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(buf.String(), "would remove old:7b") {
		t.Errorf("output = %q", buf.String())
	}
	if len(rt.deleted) != 0 {
		t.Errorf("dry run deleted %v", rt.deleted)
	}
}

func TestModelPruneKeepFlagExtends(t *testing.T) {
	c := testCommand(t)
	rt := &fakeRuntime{installed: []string{"llama3:latest", "keepme:1b", "old:7b"}}
	rt.start(t, c)
	c.cfg.Models.Keep = []string{"llama3"}

	var buf bytes.Buffer
	if err := c.ModelPrune(&buf, ModelPruneFlags{Keep: []string{"keepme"}}); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(rt.deleted) != 1 || rt.deleted[0] != "old:7b" {
		t.Errorf("deleted = %v", rt.deleted)
	}
}

func TestModelCheck(t *testing.T) {
	c := testCommand(t)
	(&fakeRuntime{}).start(t, c)

	var buf bytes.Buffer
	if err := c.ModelCheck(&buf, "llama3"); err != nil {
		t.Fatalf("check: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "llama3") || !strings.Contains(out, "ready") {
		t.Errorf("output = %q", out)
	}
}
