// Package record captures microphone audio through ffmpeg and encodes
// it as 16-bit WAV.
//
// ffmpeg streams raw 32-bit float PCM into a temp file while running.
// Recording stops by writing "q" to its stdin, the same key an
// interactive session uses, so the stream is finalized cleanly;
// SIGTERM and SIGKILL back that up when ffmpeg stops listening.
package record

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/loykin/oratr/internal/wavio"
)

// DefaultSampleRate matches what the transcription models expect.
const DefaultSampleRate = 16000

const (
	quitGrace = 2 * time.Second
	termGrace = 2 * time.Second
)

// Options configures a Recorder. Zero values pick platform defaults.
type Options struct {
	FFmpeg      string // capture binary, default "ffmpeg"
	Backend     string // ffmpeg input format, default per platform
	Device      string // device id in the backend's naming scheme
	SampleRate  int
	MaxDuration time.Duration // 0 records until stopped
	Logger      *slog.Logger
}

// Recorder runs one ffmpeg capture per Record call.
type Recorder struct {
	opts Options
}

func New(opts Options) *Recorder {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.Backend == "" {
		opts.Backend = defaultBackend()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Recorder{opts: opts}
}

// Preflight verifies the capture binary is installed.
func (r *Recorder) Preflight() error {
	if _, err := exec.LookPath(r.opts.FFmpeg); err != nil {
		return fmt.Errorf("%s not found: %w (install ffmpeg to record)", r.opts.FFmpeg, err)
	}
	return nil
}

// Recording holds captured PCM samples in the -1..1 float range.
type Recording struct {
	Samples    []float32
	SampleRate int
}

func (rec *Recording) Duration() time.Duration {
	if rec.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(rec.Samples)) / float64(rec.SampleRate) * float64(time.Second))
}

// WriteWAV encodes the recording as mono 16-bit PCM.
func (rec *Recording) WriteWAV(path string) error {
	return wavio.EncodeFile(path, wavio.Float32ToInt16(rec.Samples), rec.SampleRate, 1)
}

// Record captures until stop is closed, MaxDuration elapses, or ctx is
// cancelled. A nil stop channel disables manual stopping. Cancellation
// discards the partial capture and returns the context error.
func (r *Recorder) Record(ctx context.Context, stop <-chan struct{}) (*Recording, error) {
	if err := r.Preflight(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "oratr-rec-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()
	rawPath := filepath.Join(dir, "capture.f32le")

	input, err := inputArgs(r.opts.Backend, r.opts.Device)
	if err != nil {
		return nil, err
	}
	args := append([]string{"-hide_banner", "-loglevel", "error"}, input...)
	args = append(args,
		"-ar", strconv.Itoa(r.opts.SampleRate),
		"-ac", "1",
		"-f", "f32le",
		"-y", rawPath,
	)

	cmd := exec.Command(r.opts.FFmpeg, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.opts.Logger.Debug("starting capture",
		"backend", r.opts.Backend, "device", r.opts.Device, "rate", r.opts.SampleRate)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", r.opts.FFmpeg, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var maxC <-chan time.Time
	if r.opts.MaxDuration > 0 {
		t := time.NewTimer(r.opts.MaxDuration)
		defer t.Stop()
		maxC = t.C
	}

	select {
	case werr := <-done:
		// Device errors surface here before any stop request.
		if werr != nil {
			return nil, fmt.Errorf("%s exited early: %w: %s", r.opts.FFmpeg, werr, firstLine(stderr.String()))
		}
		return nil, fmt.Errorf("%s exited before recording was stopped: %s", r.opts.FFmpeg, firstLine(stderr.String()))
	case <-ctx.Done():
		r.shutdown(stdin, cmd, done)
		return nil, ctx.Err()
	case <-stop:
	case <-maxC:
		r.opts.Logger.Debug("max duration reached", "max", r.opts.MaxDuration)
	}

	r.shutdown(stdin, cmd, done)
	return r.collect(rawPath)
}

// shutdown stops ffmpeg the way an interactive session would: the "q"
// key first, then signals.
func (r *Recorder) shutdown(stdin io.WriteCloser, cmd *exec.Cmd, done <-chan error) {
	_, werr := stdin.Write([]byte("q"))
	_ = stdin.Close()
	if werr == nil {
		select {
		case <-done:
			return
		case <-time.After(quitGrace):
		}
	}
	r.opts.Logger.Warn("capture ignored quit key, sending SIGTERM")
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
		return
	case <-time.After(termGrace):
	}
	r.opts.Logger.Warn("capture ignored SIGTERM, killing")
	_ = cmd.Process.Kill()
	<-done
}

func (r *Recorder) collect(rawPath string) (*Recording, error) {
	raw, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	samples := decodeF32LE(raw)
	if len(samples) == 0 {
		return nil, errors.New("no audio captured")
	}
	rec := &Recording{Samples: samples, SampleRate: r.opts.SampleRate}
	r.opts.Logger.Debug("capture finished", "samples", len(samples), "duration", rec.Duration())
	return rec, nil
}

// decodeF32LE reinterprets ffmpeg's raw float stream. A trailing
// partial sample from a hard kill is dropped.
func decodeF32LE(raw []byte) []float32 {
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "(no output)"
	}
	return s
}
