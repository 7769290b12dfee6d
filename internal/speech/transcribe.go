package speech

import (
	"context"
	"fmt"
)

// TranscribeOptions tune one transcription run.
type TranscribeOptions struct {
	// Model names the STT model, e.g. "large-v3".
	Model string
	// Language hints the spoken language; empty lets the engine detect.
	Language string
}

// TranscribeResult is the transcript plus what the engine reported
// about it.
type TranscribeResult struct {
	// Text holds one line per segment, with a trailing newline when any
	// segment produced text.
	Text string
	// Lang is the detected (or forced) language.
	Lang string
	// LangProb is the engine's confidence in Lang, 0 when unknown.
	LangProb float64
}

// Summary is the one-line report printed to stderr after a run.
func (r *TranscribeResult) Summary() string {
	return fmt.Sprintf("lang=%s prob=%.2f chars=%d", r.Lang, r.LangProb, len(r.Text))
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscribeResult, error)
}
