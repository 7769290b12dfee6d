package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/record"
	"github.com/loykin/oratr/internal/speech"
	"github.com/loykin/oratr/internal/synth"
	"github.com/loykin/oratr/internal/wavio"
	"github.com/loykin/oratr/pkg/client"
)

// ttsEngine builds the configured direct synthesis engine.
func (c *command) ttsEngine() synth.Engine {
	return synth.NewKokoro(synth.KokoroOptions{
		Command: c.cfg.Speech.TTSEngine,
		Voice:   c.cfg.Speech.TTSVoice,
		Speed:   c.cfg.Speech.TTSSpeed,
		Logger:  c.logger,
	})
}

// Say synthesizes the joined arguments and plays or saves the result.
func (c *command) Say(out io.Writer, f SayFlags, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return usagef("text to speak is required")
	}
	voice := f.Voice
	if voice == "" {
		voice = c.cfg.Speech.TTSVoice
	}
	speed := f.Speed
	if speed <= 0 {
		speed = c.cfg.Speech.TTSSpeed
	}

	sp := &speech.Speaker{
		Engine: c.ttsEngine(),
		Logger: c.logger,
	}
	if !f.NoDaemon {
		sp.Client = client.New(client.Config{BaseURL: c.cfg.DaemonBaseURL(), Logger: c.logger})
	}

	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	wav, src, err := sp.Synthesize(context.Background(), synth.Request{
		Text:  text,
		Lang:  f.Lang,
		Voice: voice,
		Speed: speed,
	})
	rec.Record(history.Finish(history.EventSay,
		fmt.Sprintf("voice=%s chars=%d source=%s", voice, len(text), src), began, err))
	if err != nil {
		return err
	}
	if info, ierr := wavio.InfoOf(wav); ierr == nil {
		_, _ = fmt.Fprintf(os.Stderr, "%.1fs of %d Hz audio via %s\n",
			info.Duration.Seconds(), info.SampleRate, src)
	}

	if f.Out != "" {
		if err := os.WriteFile(f.Out, wav, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Out, err)
		}
		_, _ = fmt.Fprintln(out, f.Out)
		return nil
	}

	player := f.Player
	if player == "" {
		player = c.cfg.Speech.Player
	}
	resolved, err := speech.FindPlayer(player)
	if err != nil {
		return err
	}
	return speech.Play(context.Background(), resolved, wav)
}

// Transcribe runs the STT engine over each file, printing transcripts
// to stdout and the per-file summary to stderr.
func (c *command) Transcribe(out io.Writer, f TranscribeFlags, args []string) error {
	if len(args) == 0 {
		return usagef("audio file is required")
	}
	w := speech.NewWhisper(speech.WhisperOptions{
		Command: c.cfg.Speech.STTEngine,
		Model:   c.cfg.Speech.STTModel,
		Logger:  c.logger,
	})
	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	for _, path := range args {
		began := time.Now()
		res, err := w.Transcribe(context.Background(), path, speech.TranscribeOptions{
			Model:    f.Model,
			Language: f.Language,
		})
		rec.Record(history.Finish(history.EventTranscribe, filepath.Base(path), began, err))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		_, _ = io.WriteString(out, res.Text)
		if !strings.HasSuffix(res.Text, "\n") {
			_, _ = fmt.Fprintln(out)
		}
		_, _ = fmt.Fprintln(os.Stderr, res.Summary())
	}
	return nil
}

// Record captures microphone audio to a WAV file and prints its path.
func (c *command) Record(out io.Writer, f RecordFlags) error {
	r := record.New(record.Options{
		Backend:     f.Backend,
		Device:      f.Device,
		MaxDuration: f.MaxDuration,
		Logger:      c.logger,
	})

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			close(stop)
		}
	}()

	if f.MaxDuration > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "recording up to %s, Ctrl-C to stop early\n", f.MaxDuration)
	} else {
		_, _ = fmt.Fprintln(os.Stderr, "recording, Ctrl-C to stop")
	}

	outPath := f.Out
	if outPath == "" {
		outPath = fmt.Sprintf("recording-%s.wav", time.Now().Format("20060102-150405"))
	}

	rec := c.historyRecorder()
	defer func() { _ = rec.Close() }()

	began := time.Now()
	captured, err := r.Record(context.Background(), stop)
	rec.Record(history.Finish(history.EventRecord, filepath.Base(outPath), began, err))
	if err != nil {
		return err
	}
	if err := captured.WriteWAV(outPath); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "recorded %.1fs to %s\n", captured.Duration().Seconds(), outPath)
	_, _ = fmt.Fprintln(out, outPath)
	return nil
}

// RecordDevices prints the capture-device listing.
func (c *command) RecordDevices(out io.Writer, f RecordFlags) error {
	listing, err := record.Devices(context.Background(), record.Options{
		Backend: f.Backend,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, listing)
	return nil
}
