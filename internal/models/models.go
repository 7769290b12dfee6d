// Package models manages the local model runtime over its
// Ollama-compatible HTTP API: pull, list, remove, prune, and a
// generate smoke test.
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally installed runtime listens.
const DefaultBaseURL = "http://127.0.0.1:11434"

// DefaultCheckTimeout bounds the smoke-test generate call. Loading a
// cold model dominates it.
const DefaultCheckTimeout = 2 * time.Minute

// ErrNotFound reports an operation on a model the runtime does not
// have installed.
var ErrNotFound = errors.New("model not found")

// Config holds model client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration // cap for the quick calls; pulls ignore it
	Logger  *slog.Logger
}

// Client talks to the model runtime.
type Client struct {
	baseURL string
	client  *http.Client // quick calls
	puller  *http.Client // pulls and generates, context-bounded only
	logger  *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		puller:  &http.Client{},
		logger:  cfg.Logger,
	}
}

// Model is one installed model as reported by the runtime.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

// List returns the installed models.
func (c *Client) List(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query model runtime: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFrom(resp)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	return tags.Models, nil
}

// PullProgress is one line of the streamed pull status.
type PullProgress struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pull downloads a model, invoking progress for every status line the
// runtime streams back. progress may be nil. The call runs until the
// stream ends or ctx is cancelled.
func (c *Client) Pull(ctx context.Context, name string, progress func(PullProgress)) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("model name must not be empty")
	}
	body, err := json.Marshal(map[string]any{"model": name, "stream": true})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("pulling model", "model", name)
	resp, err := c.puller.Do(req)
	if err != nil {
		return fmt.Errorf("pull request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return c.errorFrom(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var p PullProgress
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("decode pull stream: %w", err)
		}
		if p.Error != "" {
			return fmt.Errorf("pull %s: %s", name, p.Error)
		}
		if progress != nil {
			progress(p)
		}
	}
}

// Remove deletes an installed model.
func (c *Client) Remove(ctx context.Context, name string) error {
	body, err := json.Marshal(map[string]string{"model": name})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/delete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK:
		c.logger.Debug("removed model", "model", name)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	default:
		return c.errorFrom(resp)
	}
}

// CheckResult reports a successful smoke test.
type CheckResult struct {
	Model    string
	Response string
	Elapsed  time.Duration
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Check runs a tiny generate call to verify the model actually loads
// and answers. Without a deadline on ctx, DefaultCheckTimeout applies.
func (c *Client) Check(ctx context.Context, name string) (*CheckResult, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCheckTimeout)
		defer cancel()
	}
	body, err := json.Marshal(generateRequest{
		Model:  name,
		Prompt: "Reply with the single word: ready",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	began := time.Now()
	resp, err := c.puller.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFrom(resp)
	}
	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	if gen.Error != "" {
		return nil, fmt.Errorf("generate: %s", gen.Error)
	}
	if strings.TrimSpace(gen.Response) == "" {
		return nil, fmt.Errorf("model %s answered with an empty response", name)
	}
	return &CheckResult{Model: gen.Model, Response: gen.Response, Elapsed: time.Since(began)}, nil
}

// Prune removes every installed model not on the keep list and returns
// what was (or with dryRun, would be) removed. Keep entries match the
// full tag or the bare name before the colon.
func (c *Client) Prune(ctx context.Context, keep []string, dryRun bool) ([]string, error) {
	installed, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		if k = strings.TrimSpace(k); k != "" {
			keepSet[k] = struct{}{}
		}
	}
	var removed []string
	for _, m := range installed {
		if kept(keepSet, m.Name) {
			continue
		}
		if !dryRun {
			if err := c.Remove(ctx, m.Name); err != nil {
				return removed, fmt.Errorf("prune %s: %w", m.Name, err)
			}
		}
		removed = append(removed, m.Name)
	}
	return removed, nil
}

func kept(keep map[string]struct{}, name string) bool {
	if _, ok := keep[name]; ok {
		return true
	}
	if base, _, found := strings.Cut(name, ":"); found {
		if _, ok := keep[base]; ok {
			return true
		}
	}
	return false
}

// errorFrom extracts a structured error from a non-200 response.
func (c *Client) errorFrom(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
		return fmt.Errorf("model runtime returned HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("model runtime: %s", apiErr.Error)
}
