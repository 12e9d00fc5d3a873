// Command voxhire is the Voxhire mock-interview server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxhire/voxhire/internal/config"
	"github.com/voxhire/voxhire/internal/encoder"
	"github.com/voxhire/voxhire/internal/health"
	"github.com/voxhire/voxhire/internal/interview"
	"github.com/voxhire/voxhire/internal/observe"
	"github.com/voxhire/voxhire/internal/resilience"
	"github.com/voxhire/voxhire/internal/server"
	"github.com/voxhire/voxhire/pkg/provider/llm"
	"github.com/voxhire/voxhire/pkg/provider/llm/anyllm"
	oaillm "github.com/voxhire/voxhire/pkg/provider/llm/openai"
	"github.com/voxhire/voxhire/pkg/provider/stt/whisper"
	"github.com/voxhire/voxhire/pkg/provider/tts/elevenlabs"
	"github.com/voxhire/voxhire/pkg/provider/vad/energy"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxhire: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxhire: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxhire starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxhire",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Interview store ───────────────────────────────────────────────────────
	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open interview store", "err", err)
		return 1
	}
	defer closeStore()

	// ── Providers ─────────────────────────────────────────────────────────────
	providers, err := buildProviders(cfg, metrics)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Server ────────────────────────────────────────────────────────────────
	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		TLS:        cfg.Server.TLS,
		Session:    cfg.Session,
		Store:      store,
		Providers:  providers,
		Metrics:    metrics,
		Logger:     logger,
		ReadyCheckers: []health.Checker{
			health.OutputDirChecker(cfg.Session.OutputDir),
		},
	})
	if err != nil {
		slog.Error("failed to initialise server", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Store wiring ──────────────────────────────────────────────────────────────

// buildStore opens the PostgreSQL interview store, or an in-memory store when
// no DSN is configured.
func buildStore(ctx context.Context, cfg config.StorageConfig) (interview.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		slog.Warn("no postgres_dsn configured — interview records are in-memory only")
		store := interview.NewMemStore()
		if cfg.SeedFile != "" {
			sf, err := interview.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			n, err := interview.ImportSeed(store, sf)
			if err != nil {
				return nil, nil, err
			}
			slog.Info("seeded interview records", "path", cfg.SeedFile, "count", n)
		}
		return store, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := interview.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}
	slog.Info("interview store ready", "backend", "postgres")
	return store, pool.Close, nil
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildProviders instantiates every provider named in cfg. The LLM and VAD
// stages are mandatory; the rest degrade per stage when absent.
func buildProviders(cfg *config.Config, metrics *observe.Metrics) (server.Providers, error) {
	var ps server.Providers

	questioner, err := buildLLM(cfg.Providers.LLM)
	if err != nil {
		return ps, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	ps.Questioner = questioner
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	if name := cfg.Providers.FeedbackLLM.Name; name != "" {
		scorer, err := buildLLM(cfg.Providers.FeedbackLLM)
		if err != nil {
			return ps, fmt.Errorf("create feedback llm provider %q: %w", name, err)
		}
		// Scoring falls back to the question model when the dedicated
		// feedback model is unavailable.
		fb := resilience.NewLLMFallback(scorer, name, resilience.FallbackConfig{Metrics: metrics})
		fb.AddFallback(cfg.Providers.LLM.Name, questioner)
		ps.Scorer = fb
		slog.Info("provider created", "kind", "feedback_llm", "name", name)
	}

	if entry := cfg.Providers.STT; entry.Name != "" {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.StringOption("language", ""); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		t, err := whisper.New(entry.BaseURL, opts...)
		if err != nil {
			return ps, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
		}
		// The breaker stops every turn from waiting on a dead transcription
		// service; an open circuit degrades to empty answers immediately.
		ps.Transcriber = resilience.NewSTTFallback(t, entry.Name, resilience.FallbackConfig{Metrics: metrics})
		slog.Info("provider created", "kind", "stt", "name", entry.Name)
	}

	if entry := cfg.Providers.TTS; entry.Name != "" {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		syn, err := elevenlabs.New(entry.APIKey, entry.StringOption("voice_id", ""), opts...)
		if err != nil {
			return ps, fmt.Errorf("create tts provider %q: %w", entry.Name, err)
		}
		// Same treatment as STT: an open circuit means text-only questions
		// instead of a synthesis timeout on every turn.
		ps.Synthesizer = resilience.NewTTSFallback(syn, entry.Name, resilience.FallbackConfig{Metrics: metrics})
		slog.Info("provider created", "kind", "tts", "name", entry.Name)
	}

	var vadOpts []energy.Option
	if entry := cfg.Providers.VAD; entry.Name != "" {
		if v, ok := optFloat(entry.Options, "speech_rms"); ok {
			vadOpts = append(vadOpts, energy.WithSpeechRMS(v))
		}
		if v, ok := optFloat(entry.Options, "silence_rms"); ok {
			vadOpts = append(vadOpts, energy.WithSilenceRMS(v))
		}
	}
	engine, err := energy.New(vadOpts...)
	if err != nil {
		return ps, fmt.Errorf("create vad engine: %w", err)
	}
	ps.VAD = engine
	slog.Info("provider created", "kind", "vad", "name", "energy")

	ps.Encoder = encoder.NewFFmpeg()
	return ps, nil
}

// buildLLM constructs an LLM client from a provider entry. "openai" uses the
// official SDK; every other recognised name goes through any-llm.
func buildLLM(entry config.ProviderEntry) (llm.Client, error) {
	switch entry.Name {
	case "":
		return nil, errors.New("no llm provider configured")
	case "openai":
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	default:
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(entry.Name, entry.Model, opts...)
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optFloat extracts a numeric value from a provider Options map. YAML decodes
// unquoted numbers as int or float64 depending on the literal.
func optFloat(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
