// Package wavio holds the WAV plumbing shared by synthesis, playback,
// and recording: header inspection and 16-bit PCM encoding.
package wavio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info summarizes a WAV payload.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ReadInfo parses the WAV header from r.
func ReadInfo(r io.ReadSeeker) (*Info, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	dur, err := dec.Duration()
	if err != nil {
		dur = 0
	}
	return &Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

// InfoOf inspects in-memory WAV bytes.
func InfoOf(b []byte) (*Info, error) {
	return ReadInfo(bytes.NewReader(b))
}

// Float32ToInt16 converts normalized [-1,1] samples to 16-bit PCM
// values, clamping out-of-range input.
func Float32ToInt16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int(v * 32767)
	}
	return out
}

// Encode writes pcm as a 16-bit PCM WAV stream.
func Encode(w io.WriteSeeker, pcm []int, sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid wav format: rate=%d channels=%d", sampleRate, channels)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           pcm,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// EncodeFile writes pcm to path as a 16-bit PCM WAV file.
func EncodeFile(path string, pcm []int, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, pcm, sampleRate, channels); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
