// Package server exposes the interview service over HTTP: the candidate
// websocket endpoint, Prometheus metrics, and health probes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/voxhire/voxhire/internal/config"
	"github.com/voxhire/voxhire/internal/encoder"
	"github.com/voxhire/voxhire/internal/health"
	"github.com/voxhire/voxhire/internal/interview"
	"github.com/voxhire/voxhire/internal/observe"
	"github.com/voxhire/voxhire/internal/session"
	"github.com/voxhire/voxhire/pkg/provider/llm"
	"github.com/voxhire/voxhire/pkg/provider/stt"
	"github.com/voxhire/voxhire/pkg/provider/tts"
	"github.com/voxhire/voxhire/pkg/provider/vad"
)

const (
	// maxFrameBytes caps a single websocket frame. One second of 16 kHz
	// mono PCM is 32 KiB; camera frames are larger.
	maxFrameBytes = 1 << 20

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Providers holds one interface value per pipeline stage. Transcriber,
// Synthesizer, and Encoder may be nil; the session degrades per stage.
type Providers struct {
	Questioner llm.Client

	// Scorer generates post-interview feedback. Defaults to Questioner.
	Scorer llm.Client

	Transcriber stt.Transcriber
	Synthesizer tts.Synthesizer
	VAD         vad.Engine
	Encoder     encoder.Encoder
}

// Config wires the server's collaborators and network settings.
type Config struct {
	ListenAddr string

	// TLS enables HTTPS when non-nil.
	TLS *config.TLSConfig

	// AllowedOrigins is passed to the websocket origin check. Empty means
	// same-origin only.
	AllowedOrigins []string

	// Session is the per-session tuning applied to every new connection.
	Session config.SessionConfig

	Store     interview.Store
	Providers Providers

	// Metrics may be nil.
	Metrics *observe.Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// ReadyCheckers are extra readiness probes beyond the built-in store
	// check.
	ReadyCheckers []health.Checker
}

// Server runs the HTTP surface and owns the session registry.
type Server struct {
	cfg      Config
	log      *slog.Logger
	auth     *Authenticator
	registry *session.Registry
	httpSrv  *http.Server
}

// New creates a Server. The listener is not opened until [Server.Run].
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.New("server: ListenAddr is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: Store is required")
	}
	if cfg.Providers.Questioner == nil {
		return nil, errors.New("server: an LLM provider is required")
	}
	if cfg.Providers.VAD == nil {
		return nil, errors.New("server: a VAD engine is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		log:      cfg.Logger,
		auth:     NewAuthenticator(cfg.Store),
		registry: session.NewRegistry(),
	}

	checkers := append([]health.Checker{health.StoreChecker(cfg.Store)}, cfg.ReadyCheckers...)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	// The websocket route bypasses the HTTP middleware: upgrades need the
	// raw ResponseWriter for hijacking, and a session is not a request.
	root := http.NewServeMux()
	root.HandleFunc("GET /ws", s.handleWS)
	root.Handle("/", observe.Middleware(cfg.Metrics)(mux))

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// Registry exposes the live session registry.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Run serves until ctx is cancelled, then drains live sessions and shuts the
// listener down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.log.Info("server listening", "addr", ln.Addr().String(), "tls", s.cfg.TLS != nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if s.cfg.TLS != nil {
			err = s.httpSrv.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.httpSrv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("server draining", "sessions", s.registry.Len())

		// Sessions flush artifacts on disconnect; signal them before the
		// listener goes away so teardown runs on live connections.
		s.registry.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
