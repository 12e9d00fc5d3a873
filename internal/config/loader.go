package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"whisper"},
	"tts": {"elevenlabs"},
	"vad": {"energy"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate]. Values of the form ${VAR} are expanded from the environment
// before parsing, so secrets never need to live in the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg, err := LoadFromReader(expandEnv(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv replaces ${VAR} references with environment values. Unset
// variables are left as-is so the validation error points at the literal
// placeholder instead of an empty string.
func expandEnv(data []byte) io.Reader {
	expanded := os.Expand(string(data), func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
	return strings.NewReader(expanded)
}

// Validate checks that cfg contains a coherent set of values and fills in
// session defaults. It returns a joined error listing all validation
// failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Session defaults and bounds
	if cfg.Session.SilenceThreshold == 0 {
		cfg.Session.SilenceThreshold = Duration(DefaultSilenceThreshold)
	} else if cfg.Session.SilenceThreshold.Std() < time.Second {
		errs = append(errs, fmt.Errorf("session.silence_threshold %s is below 1s; candidates need time to think", cfg.Session.SilenceThreshold.Std()))
	}
	if cfg.Session.CheckInterval == 0 {
		cfg.Session.CheckInterval = Duration(DefaultCheckInterval)
	}
	if cfg.Session.CheckInterval.Std() > cfg.Session.SilenceThreshold.Std() {
		errs = append(errs, fmt.Errorf("session.check_interval %s exceeds silence_threshold %s", cfg.Session.CheckInterval.Std(), cfg.Session.SilenceThreshold.Std()))
	}
	if cfg.Session.SampleRate == 0 {
		cfg.Session.SampleRate = DefaultSampleRate
	} else if cfg.Session.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("session.sample_rate %d is invalid", cfg.Session.SampleRate))
	}
	if cfg.Session.FrameSamples == 0 {
		cfg.Session.FrameSamples = DefaultFrameSamples
	} else if cfg.Session.FrameSamples < 0 {
		errs = append(errs, fmt.Errorf("session.frame_samples %d is invalid", cfg.Session.FrameSamples))
	}
	if cfg.Session.AnswerSpeedup == 0 {
		cfg.Session.AnswerSpeedup = DefaultAnswerSpeedup
	} else if cfg.Session.AnswerSpeedup < 0.5 || cfg.Session.AnswerSpeedup > 2.0 {
		errs = append(errs, fmt.Errorf("session.answer_speedup %.2f is out of range [0.5, 2.0]", cfg.Session.AnswerSpeedup))
	}
	if cfg.Session.OutputDir == "" {
		cfg.Session.OutputDir = DefaultOutputDir
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("llm", cfg.Providers.FeedbackLLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required; the interviewer cannot run without a question model"))
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; candidate answers will transcribe as empty text")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; questions will be delivered as text only")
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; interview records will be held in memory only")
	}

	return errors.Join(errs...)
}

func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidProviderNames[kind], name) {
		slog.Warn("unrecognised provider name", "kind", kind, "name", name)
	}
}
