package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxhire/voxhire/internal/observe"
)

// ErrAllBackendsFailed is returned by [Try] when every backend in a
// [FallbackGroup] fails or sits behind an open breaker.
var ErrAllBackendsFailed = errors.New("resilience: all backends failed")

// FallbackConfig configures a [FallbackGroup]. The Breaker settings apply to
// every backend; each gets its own [Breaker] named after it.
type FallbackConfig struct {
	Breaker BreakerConfig

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics records breaker trips. May be nil.
	Metrics *observe.Metrics
}

// FallbackGroup orders a primary and zero or more fallback backends of the
// same provider type. A call goes to the first backend whose breaker admits
// it and that succeeds; registration order is priority order.
//
// Register all backends before use; AddFallback is not safe concurrently
// with [Try].
type FallbackGroup[T any] struct {
	backends []backend[T]
	cfg      FallbackConfig
	log      *slog.Logger
}

// backend pairs one provider instance with its breaker.
type backend[T any] struct {
	name    string
	impl    T
	breaker *Breaker
}

// NewFallbackGroup creates a group with primary as its first backend.
func NewFallbackGroup[T any](primary T, name string, cfg FallbackConfig) *FallbackGroup[T] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	g := &FallbackGroup[T]{cfg: cfg, log: cfg.Logger}
	g.add(name, primary)
	return g
}

// AddFallback appends a backend tried after all earlier ones.
func (g *FallbackGroup[T]) AddFallback(name string, impl T) {
	g.add(name, impl)
}

func (g *FallbackGroup[T]) add(name string, impl T) {
	bc := g.cfg.Breaker
	bc.Name = name
	bc.Logger = g.cfg.Logger
	bc.Metrics = g.cfg.Metrics
	g.backends = append(g.backends, backend[T]{
		name:    name,
		impl:    impl,
		breaker: NewBreaker(bc),
	})
}

// Try runs op against each backend in priority order until one succeeds and
// returns its result. Backends with an open breaker are skipped. When every
// backend fails, the zero result and [ErrAllBackendsFailed] wrapping the
// last error are returned.
//
// Try is a package-level function because Go methods cannot introduce the
// result type parameter.
func Try[T, R any](ctx context.Context, g *FallbackGroup[T], op func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range g.backends {
		b := &g.backends[i]
		var out R
		err := b.breaker.Do(ctx, func() error {
			var opErr error
			out, opErr = op(b.impl)
			return opErr
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			g.log.Debug("skipping backend, breaker open", "backend", b.name)
		} else {
			g.log.Warn("backend failed, trying next", "backend", b.name, "error", err)
		}
	}
	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllBackendsFailed, lastErr)
}
