// Package resilience keeps a degraded interview usable when a speech or
// language backend misbehaves. A [Breaker] stops every turn from waiting on
// a backend that keeps failing; a [FallbackGroup] routes around a tripped
// backend to the next configured one, so a dead transcription service
// degrades to empty answers and a dead voice service to text-only questions
// instead of stalling the candidate.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxhire/voxhire/internal/observe"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker is open and
// the cooldown has not yet elapsed.
var ErrBreakerOpen = errors.New("resilience: breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrBreakerOpen] until the cooldown
	// elapses.
	StateOpen

	// StateHalfOpen lets a budgeted number of probe calls through to decide
	// whether the backend has recovered.
	StateHalfOpen
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a [Breaker]. Zero-value fields get defaults.
type BreakerConfig struct {
	// Name identifies the protected backend in logs and metrics.
	Name string

	// TripThreshold is the number of consecutive failures before the
	// breaker opens. Default: 5.
	TripThreshold int

	// Cooldown is how long an open breaker rejects calls before probing the
	// backend again. Default: 30s.
	Cooldown time.Duration

	// ProbeBudget is how many half-open probe calls may run, and how many
	// must succeed to close the breaker again. Default: 3.
	ProbeBudget int

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics records breaker trips. May be nil.
	Metrics *observe.Metrics
}

// Breaker is a three-state circuit breaker (closed, open, half-open) guarding
// one backend.
type Breaker struct {
	name    string
	trip    int
	cool    time.Duration
	budget  int
	log     *slog.Logger
	metrics *observe.Metrics
	now     func() time.Time

	mu         sync.Mutex
	state      State
	failures   int
	failedAt   time.Time
	probes     int
	probeFails int
}

// NewBreaker creates a closed [Breaker] from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.TripThreshold <= 0 {
		cfg.TripThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ProbeBudget <= 0 {
		cfg.ProbeBudget = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Breaker{
		name:    cfg.Name,
		trip:    cfg.TripThreshold,
		cool:    cfg.Cooldown,
		budget:  cfg.ProbeBudget,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Do runs op if the breaker admits the call. Open breakers reject with
// [ErrBreakerOpen] without running op; half-open breakers admit calls up to
// the probe budget. Any other error is op's own.
func (b *Breaker) Do(ctx context.Context, op func() error) error {
	probing, err := b.admit()
	if err != nil {
		return err
	}
	err = op()
	b.settle(ctx, probing, err)
	return err
}

// admit decides whether a call may proceed and reports whether it counts as
// a half-open probe.
func (b *Breaker) admit() (probing bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.failedAt) < b.cool {
			return false, ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.probeFails = 0
		b.log.Info("breaker probing backend", "backend", b.name)
	case StateHalfOpen:
		if b.probes >= b.budget {
			return false, ErrBreakerOpen
		}
	}

	if b.state == StateHalfOpen {
		b.probes++
		return true, nil
	}
	return false, nil
}

// settle records the outcome of an admitted call.
func (b *Breaker) settle(ctx context.Context, probing bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if !probing {
			b.failures = 0
			return
		}
		if b.probes-b.probeFails >= b.budget {
			b.state = StateClosed
			b.failures = 0
			b.probes = 0
			b.probeFails = 0
			b.log.Info("breaker closed, backend recovered", "backend", b.name)
		}
		return
	}

	b.failedAt = b.now()
	if probing {
		// One failed probe is enough evidence the backend is still down.
		b.probeFails++
		b.state = StateOpen
		b.failures = b.trip
		b.log.Warn("breaker re-opened, probe failed", "backend", b.name)
		b.metrics.RecordBreakerTrip(ctx, b.name)
		return
	}

	b.failures++
	if b.failures >= b.trip {
		b.state = StateOpen
		b.log.Warn("breaker opened",
			"backend", b.name, "consecutive_failures", b.failures)
		b.metrics.RecordBreakerTrip(ctx, b.name)
	}
}

// State returns the breaker's state. An open breaker whose cooldown has
// elapsed reports half-open; the transition itself happens on the next
// [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.failedAt) >= b.cool {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probes = 0
	b.probeFails = 0
	b.log.Info("breaker manually reset", "backend", b.name)
}
