package oratr

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/loykin/oratr/internal/config"
	"github.com/loykin/oratr/internal/daemon"
	"github.com/loykin/oratr/internal/history"
	"github.com/loykin/oratr/internal/history/factory"
	"github.com/loykin/oratr/internal/logger"
	"github.com/loykin/oratr/internal/metrics"
	iapi "github.com/loykin/oratr/internal/server"
	"github.com/loykin/oratr/internal/synth"
	"github.com/loykin/oratr/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type DaemonConfig = daemon.Config

type Status = daemon.Status

type State = daemon.State

// Sentinels callers branch on.
var (
	ErrNotRunning   = daemon.ErrNotRunning
	ErrStartTimeout = daemon.ErrStartTimeout
)

// Supervisor is a thin facade over internal/daemon.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *daemon.Supervisor }

func NewSupervisor(c DaemonConfig) *Supervisor { return &Supervisor{inner: daemon.New(c)} }

func (s *Supervisor) Start(ctx context.Context) (*Status, error)   { return s.inner.Start(ctx) }
func (s *Supervisor) Stop(ctx context.Context) error               { return s.inner.Stop(ctx) }
func (s *Supervisor) Restart(ctx context.Context) (*Status, error) { return s.inner.Restart(ctx) }
func (s *Supervisor) Status(ctx context.Context) (*Status, error)  { return s.inner.Status(ctx) }
func (s *Supervisor) State() State                                 { return s.inner.State() }

// Client facade
type Client = client.Client

type ClientConfig = client.Config

type SynthesizeRequest = client.SynthesizeRequest

type HealthStatus = client.HealthStatus

func NewClient(c ClientConfig) *Client { return client.New(c) }

func DefaultClientConfig() ClientConfig { return client.DefaultConfig() }

// Server facade: the daemon's HTTP application, embeddable via Handler().
type Server = iapi.Server

type ServerConfig = iapi.Config

type Engine = synth.Engine

type SynthesisRequest = synth.Request

type KokoroOptions = synth.KokoroOptions

func NewServer(c ServerConfig) (*Server, error) { return iapi.New(c) }

func NewKokoro(opts KokoroOptions) Engine { return synth.NewKokoro(opts) }

// History facade
type HistoryConfig = cfg.HistoryConfig

type HistorySink = history.Sink

type HistoryEvent = history.Event

type HistoryRecorder = history.Recorder

// NewHistorySink builds a sink from a DSN the way the daemon does
// (sqlite path, postgres://, clickhouse://, opensearch http(s)://).
func NewHistorySink(dsn, table string) (HistorySink, error) { return factory.NewSink(dsn, table) }

func NewHistoryRecorder(sink HistorySink, logger *slog.Logger) *HistoryRecorder {
	return history.NewRecorder(sink, logger)
}

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}

func DefaultConfig() cfg.Config { return cfg.Default() }

// Logging facade: the same config drives the CLI's console handler and
// the daemon's rotated file output.
type LogConfig = logger.Config

type LogFileConfig = logger.FileConfig

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
