package speech

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultWhisperTimeout bounds one transcription when the caller's
// context carries no deadline. Long recordings through a large model
// are slow.
const DefaultWhisperTimeout = 10 * time.Minute

// summaryRe matches the engine's stderr/stdout report line.
var summaryRe = regexp.MustCompile(`lang=(\S+)\s+prob=([0-9.]+)`)

// WhisperOptions configures the subprocess STT engine.
type WhisperOptions struct {
	// Command is the engine binary name or path. Default "whisper".
	Command string
	// Model is used when a request carries none. Default "large-v3".
	Model string
	// Timeout applies when the caller's context has no deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Whisper shells out to a whisper-style CLI that takes an input audio
// file and an output text path, writes segment lines to the output,
// and reports "lang=... prob=..." on its standard streams.
type Whisper struct {
	opts WhisperOptions
}

func NewWhisper(opts WhisperOptions) *Whisper {
	if opts.Command == "" {
		opts.Command = "whisper"
	}
	if opts.Model == "" {
		opts.Model = "large-v3"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWhisperTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Whisper{opts: opts}
}

// Preflight verifies the engine binary is resolvable.
func (w *Whisper) Preflight() error {
	if _, err := exec.LookPath(w.opts.Command); err != nil {
		return fmt.Errorf("stt engine %q not found: %w", w.opts.Command, err)
	}
	return nil
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscribeResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	if err := w.Preflight(); err != nil {
		return nil, err
	}
	model := opts.Model
	if model == "" {
		model = w.opts.Model
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "oratr-stt-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	outPath := filepath.Join(dir, "out.txt")

	args := []string{audioPath, outPath, "--model", model}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}

	began := time.Now()
	cmd := exec.CommandContext(ctx, w.opts.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stt engine: %w", ctx.Err())
		}
		return nil, fmt.Errorf("stt engine failed: %w: %s", err, firstLine(stderr.String()))
	}

	text, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	res := &TranscribeResult{Text: string(text)}
	if m := summaryRe.FindStringSubmatch(stdout.String() + "\n" + stderr.String()); m != nil {
		res.Lang = m[1]
		if p, err := strconv.ParseFloat(m[2], 64); err == nil {
			res.LangProb = p
		}
	}
	w.opts.Logger.Debug("transcription complete", "file", audioPath, "model", model,
		"chars", len(res.Text), "lang", res.Lang, "took", time.Since(began).Round(time.Millisecond))
	return res, nil
}

// firstLine trims engine stderr down to something that fits in an
// error message.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "(no stderr)"
	}
	return s
}
