package synth

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultKokoroTimeout bounds a single engine run when the caller's
// context carries no deadline. A cold start loads the whole model, so
// this is generous.
const DefaultKokoroTimeout = 120 * time.Second

// KokoroOptions configures the subprocess TTS engine. Zero values use
// the defaults above.
type KokoroOptions struct {
	// Command is the engine binary name or path. Default "kokoro".
	Command string
	// Voice is the voice id used when a request carries none.
	Voice string
	// Speed is the speed multiplier used when a request carries none.
	Speed float64
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	// Timeout applies when the caller's context has no deadline.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Kokoro shells out to a kokoro-style TTS CLI: text goes to a temp
// file, the engine writes a 24 kHz WAV next to it, and the bytes come
// back. Invocations are serialized because each one loads the model;
// running two at once just thrashes memory.
type Kokoro struct {
	opts KokoroOptions
	sem  chan struct{}
}

func NewKokoro(opts KokoroOptions) *Kokoro {
	if opts.Command == "" {
		opts.Command = "kokoro"
	}
	if opts.Voice == "" {
		opts.Voice = DefaultVoice
	}
	if opts.Speed <= 0 {
		opts.Speed = DefaultSpeed
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultKokoroTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Kokoro{opts: opts, sem: make(chan struct{}, 1)}
}

// Preflight verifies the engine binary is resolvable without running a
// synthesis.
func (k *Kokoro) Preflight() error {
	if _, err := exec.LookPath(k.opts.Command); err != nil {
		return fmt.Errorf("tts engine %q not found: %w", k.opts.Command, err)
	}
	return nil
}

func (k *Kokoro) Ready() bool { return k.Preflight() == nil }

func (k *Kokoro) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	voice := req.Voice
	if voice == "" {
		voice = k.opts.Voice
	}
	speed := req.Speed
	if speed <= 0 {
		speed = k.opts.Speed
	}
	lang := req.Lang
	if lang == "" {
		lang = LangForVoice(voice)
	}

	select {
	case k.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-k.sem }()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.opts.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "oratr-tts-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	textPath := filepath.Join(dir, "input.txt")
	wavPath := filepath.Join(dir, "out.wav")
	if err := os.WriteFile(textPath, []byte(text), 0o600); err != nil {
		return nil, fmt.Errorf("write input text: %w", err)
	}

	args := []string{textPath, wavPath,
		"--voice", voice,
		"--speed", strconv.FormatFloat(speed, 'f', -1, 64),
		"--lang", lang,
	}
	args = append(args, k.opts.ExtraArgs...)

	began := time.Now()
	cmd := exec.CommandContext(ctx, k.opts.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("tts engine: %w", ctx.Err())
		}
		return nil, fmt.Errorf("tts engine failed: %w: %s", err, firstLine(stderr.String()))
	}

	b, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read engine output: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("tts engine produced no audio")
	}
	k.opts.Logger.Debug("synthesis complete",
		"voice", voice, "lang", lang, "chars", len(text),
		"bytes", len(b), "took", time.Since(began).Round(time.Millisecond))
	return b, nil
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
