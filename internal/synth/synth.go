// Package synth abstracts voice synthesis behind an Engine interface.
// The production engine shells out to a kokoro-style TTS CLI; the
// daemon and the say command both speak through the same surface, and
// tests substitute a fake.
package synth

import (
	"context"
	"errors"
)

// Kokoro-style engine defaults.
const (
	DefaultSampleRate = 24000
	DefaultVoice      = "af_heart"
	DefaultSpeed      = 1.0
)

// ErrEmptyText rejects synthesis of empty or whitespace-only text.
var ErrEmptyText = errors.New("text must not be empty")

// Request holds one synthesis call. Zero fields fall back to the
// engine's defaults; Lang is derived from Voice when empty.
type Request struct {
	Text  string
	Lang  string
	Voice string
	Speed float64
}

// Engine turns text into a complete WAV file.
type Engine interface {
	// Synthesize returns the spoken text as WAV bytes (RIFF header
	// included).
	Synthesize(ctx context.Context, req Request) ([]byte, error)
	// Ready reports whether the engine can synthesize right now.
	Ready() bool
}
