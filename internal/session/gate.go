package session

import (
	"sync"
	"time"
)

// TurnState is the listening state of a session's current turn.
type TurnState int

const (
	// Idle means the candidate has not started answering; inbound media is
	// dropped.
	Idle TurnState = iota

	// Listening means the candidate is answering; media is buffered and the
	// silence timer runs.
	Listening

	// Advancing means a turn advance is in flight; further triggers are
	// no-ops until it completes.
	Advancing
)

// String returns the state name for logs.
func (s TurnState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Advancing:
		return "advancing"
	default:
		return "unknown"
	}
}

// TurnGate serialises turn advancement for one session. Two triggers exist —
// the candidate explicitly finishing their answer, and the silence timeout —
// and they can race: the gate guarantees at most one advance is in flight
// and that triggers arriving mid-advance are dropped, not queued.
//
// Safe for concurrent use by the session's event task and its timer task.
type TurnGate struct {
	mu         sync.Mutex
	state      TurnState
	lastSpeech time.Time
	now        func() time.Time
}

// NewTurnGate creates a gate in the Idle state.
func NewTurnGate() *TurnGate {
	return &TurnGate{now: time.Now}
}

// BeginResponse moves Idle → Listening and primes the silence timer, so a
// candidate who starts answering and never speaks still times out. Returns
// false (no state change) unless the gate was Idle.
func (g *TurnGate) BeginResponse() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Idle {
		return false
	}
	g.state = Listening
	g.lastSpeech = g.now()
	return true
}

// TryAdvance moves Listening → Advancing. Returns false if the gate is not
// Listening — either no answer is in progress or an advance is already in
// flight.
func (g *TurnGate) TryAdvance() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Listening {
		return false
	}
	g.state = Advancing
	return true
}

// FinishAdvance completes an advance: the gate returns to Idle and the
// silence timer is cleared so the next turn cannot inherit a stale
// timestamp.
func (g *TurnGate) FinishAdvance() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = Idle
	g.lastSpeech = time.Time{}
}

// MarkSpeech refreshes the silence timer. Only meaningful while Listening;
// calls in other states are dropped so pre-answer audio never arms the
// timer.
func (g *TurnGate) MarkSpeech() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Listening {
		g.lastSpeech = g.now()
	}
}

// SilenceExceeded reports whether the candidate has been silent longer than
// threshold while Listening.
func (g *TurnGate) SilenceExceeded(threshold time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Listening || g.lastSpeech.IsZero() {
		return false
	}
	return g.now().Sub(g.lastSpeech) > threshold
}

// State returns the current turn state.
func (g *TurnGate) State() TurnState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Listening reports whether inbound media should be buffered.
func (g *TurnGate) Listening() bool {
	return g.State() == Listening
}
