// Package server implements the synthesis daemon's HTTP surface:
// GET /health, POST /synthesize, POST /shutdown and GET /metrics. The
// handler is mountable into any mux; Run serves it standalone with an
// idle monitor that stops the daemon after a configurable quiet period.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/metrics"
	"github.com/loykin/oratr/internal/synth"
)

// Config describes one daemon server instance.
type Config struct {
	Host string // default 127.0.0.1
	Port int    // default 8765; 0 picks a free port
	// IdleTimeout stops the daemon after that much time without a
	// synthesis request. Zero disables the idle monitor.
	IdleTimeout time.Duration
	Engine      synth.Engine
	// History records completed synthesis calls, best-effort. Optional.
	History *history.Recorder
	Logger  *slog.Logger
}

// Server is the daemon's HTTP application state.
type Server struct {
	cfg    Config
	logger *slog.Logger

	// synthMu serializes engine invocations regardless of the engine's
	// own discipline.
	synthMu    sync.Mutex
	lastActive atomic.Int64 // unix nanos of the last synthesis activity

	addr     atomic.Value // string, set once listening
	stopOnce sync.Once
	stopCh   chan struct{}

	// idleEvery is how often the idle monitor looks at the clock.
	// Shortened in tests.
	idleEvery time.Duration
}

func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("server: invalid port %d", cfg.Port)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := metrics.RegisterDefault(); err != nil {
		cfg.Logger.Warn("metrics registration failed", "error", err)
	}
	s := &Server{cfg: cfg, logger: cfg.Logger, stopCh: make(chan struct{}), idleEvery: 30 * time.Second}
	s.lastActive.Store(time.Now().UnixNano())
	return s, nil
}

// Handler returns the gin-powered handler so the daemon API can also be
// mounted inside a larger application.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(func(c *gin.Context) {
		c.Next()
		metrics.IncHTTPRequest(c.FullPath(), strconv.Itoa(c.Writer.Status()))
	})
	g.GET("/health", s.handleHealth)
	g.POST("/synthesize", s.handleSynthesize)
	g.POST("/shutdown", s.handleShutdown)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// Addr returns the bound listen address once Run is serving, "" before.
func (s *Server) Addr() string {
	if v, ok := s.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Stop asks a running Run loop to shut down. Safe to call more than
// once and before Run.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run serves the daemon API until ctx is cancelled, Stop is called
// (that is what POST /shutdown does), or the idle monitor fires. In-
// flight requests get a short drain window.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.addr.Store(ln.Addr().String())

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write timeout: a cold-cache synthesis response can take
		// minutes.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("daemon listening",
		"addr", s.Addr(), "idle_timeout", s.cfg.IdleTimeout, "engine_ready", s.cfg.Engine.Ready())

	// Expose this process's own resource usage on /metrics.
	sampler := metrics.NewUsageSampler(int32(os.Getpid()), 0)
	if err := sampler.RegisterMetricsDefault(); err != nil {
		s.logger.Debug("usage gauges unavailable", "error", err)
	}
	sampler.Start(ctx)
	defer sampler.Stop()

	idleTick := time.NewTicker(s.idleEvery)
	defer idleTick.Stop()

	var reason string
loop:
	for {
		select {
		case <-ctx.Done():
			reason = "signal"
			break loop
		case <-s.stopCh:
			reason = "shutdown request"
			break loop
		case err := <-errCh:
			return fmt.Errorf("serve: %w", err)
		case <-idleTick.C:
			if s.cfg.IdleTimeout <= 0 {
				continue
			}
			idle := s.idleFor()
			if idle >= s.cfg.IdleTimeout {
				s.logger.Info("idle timeout reached, stopping",
					"idle", idle.Round(time.Second), "limit", s.cfg.IdleTimeout)
				reason = "idle timeout"
				break loop
			}
		}
	}

	s.logger.Info("daemon stopping", "reason", reason)
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) idleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

func (s *Server) markActive() {
	s.lastActive.Store(time.Now().UnixNano())
}

type errorResp struct {
	Error string `json:"error"`
}

type healthResp struct {
	Status             string  `json:"status"`
	EngineReady        bool    `json:"engine_ready"`
	IdleSeconds        float64 `json:"idle_seconds"`
	IdleTimeoutMinutes int     `json:"idle_timeout_minutes"`
}

type synthesizeReq struct {
	Text  string  `json:"text"`
	Lang  string  `json:"lang"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// handleHealth reports liveness. Health checks do not count as
// activity, so the supervisor's probing never keeps an unused daemon
// alive.
func (s *Server) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, healthResp{
		Status:             "ok",
		EngineReady:        s.cfg.Engine.Ready(),
		IdleSeconds:        s.idleFor().Seconds(),
		IdleTimeoutMinutes: int(s.cfg.IdleTimeout.Minutes()),
	})
}

func (s *Server) handleSynthesize(c *gin.Context) {
	var req synthesizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		metrics.ObserveSynthesis("bad_request", 0)
		writeJSON(c, http.StatusBadRequest, errorResp{Error: synth.ErrEmptyText.Error()})
		return
	}
	if !isSafeToken(req.Voice) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid voice: allowed [A-Za-z0-9._-]"})
		return
	}
	if !isSafeToken(req.Lang) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid lang: allowed [A-Za-z0-9._-]"})
		return
	}

	s.markActive()
	defer s.markActive() // long syntheses should not count as idle time

	s.synthMu.Lock()
	defer s.synthMu.Unlock()

	began := time.Now()
	wav, err := s.cfg.Engine.Synthesize(c.Request.Context(), synth.Request{
		Text:  req.Text,
		Lang:  req.Lang,
		Voice: req.Voice,
		Speed: req.Speed,
	})
	took := time.Since(began)
	detail := fmt.Sprintf("voice=%s chars=%d", req.Voice, len(req.Text))
	s.cfg.History.Record(history.Finish(history.EventSynthesize, detail, began, err))
	if err != nil {
		if errors.Is(err, synth.ErrEmptyText) {
			metrics.ObserveSynthesis("bad_request", took.Seconds())
			writeJSON(c, http.StatusBadRequest, errorResp{Error: synth.ErrEmptyText.Error()})
			return
		}
		metrics.ObserveSynthesis("error", took.Seconds())
		s.logger.Error("synthesis failed", "error", err, "chars", len(req.Text))
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	metrics.ObserveSynthesis("ok", took.Seconds())
	s.logger.Info("synthesized", "chars", len(req.Text), "bytes", len(wav),
		"took", took.Round(time.Millisecond))
	c.Data(http.StatusOK, "audio/wav", wav)
}

func (s *Server) handleShutdown(c *gin.Context) {
	s.logger.Info("shutdown requested over http")
	writeJSON(c, http.StatusOK, gin.H{"status": "stopping"})
	s.Stop()
}
