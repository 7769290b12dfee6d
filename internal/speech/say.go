package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/loykin/oratr/internal/synth"
	"github.com/loykin/oratr/pkg/client"
)

// Fast-path timing: a quick reachability check decides between the
// warm daemon and a cold direct engine run.
const (
	daemonProbeTimeout = 1 * time.Second
	daemonSynthTimeout = 30 * time.Second
)

// Source names where a synthesis came from.
type Source string

const (
	SourceDaemon Source = "daemon"
	SourceDirect Source = "direct"
)

// Speaker synthesizes text preferring the running daemon (model
// already loaded) and falling back to the direct engine, which loads
// the model per call.
type Speaker struct {
	Client *client.Client // daemon fast path; nil disables it
	Engine synth.Engine   // direct fallback; nil disables it
	Logger *slog.Logger
}

func (s *Speaker) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Synthesize returns WAV bytes for the text and reports which path
// produced them. Daemon errors downgrade to a fallback, not a failure;
// only the final path's error surfaces.
func (s *Speaker) Synthesize(ctx context.Context, req synth.Request) ([]byte, Source, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, "", synth.ErrEmptyText
	}
	if s.Client != nil {
		if wav, err := s.viaDaemon(ctx, req); err == nil {
			return wav, SourceDaemon, nil
		} else if !errors.Is(err, errDaemonUnreachable) {
			s.logger().Warn("daemon synthesis failed, falling back to direct engine", "error", err)
		}
	}
	if s.Engine == nil {
		return nil, "", ErrNoEngine
	}
	wav, err := s.Engine.Synthesize(ctx, req)
	if err != nil {
		return nil, "", err
	}
	return wav, SourceDirect, nil
}

var errDaemonUnreachable = errors.New("daemon not reachable")

func (s *Speaker) viaDaemon(ctx context.Context, req synth.Request) ([]byte, error) {
	pctx, cancel := context.WithTimeout(ctx, daemonProbeTimeout)
	reachable := s.Client.IsReachable(pctx)
	cancel()
	if !reachable {
		return nil, errDaemonUnreachable
	}
	sctx, cancel := context.WithTimeout(ctx, daemonSynthTimeout)
	defer cancel()
	return s.Client.Synthesize(sctx, client.SynthesizeRequest{
		Text:  req.Text,
		Lang:  req.Lang,
		Voice: req.Voice,
		Speed: req.Speed,
	})
}
