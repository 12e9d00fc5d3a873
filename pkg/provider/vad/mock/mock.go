// Package mock provides test doubles for the vad.Engine and vad.Session
// interfaces.
package mock

import (
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/vad"
)

// Engine is a mock implementation of vad.Engine that hands out a fixed
// Session instance.
type Engine struct {
	// SessionResult is returned by NewSession. When nil, a fresh empty
	// Session is returned.
	SessionResult *Session

	// Err, if non-nil, is returned as the error from NewSession.
	Err error
}

// Compile-time interface assertions.
var (
	_ vad.Engine  = (*Engine)(nil)
	_ vad.Session = (*Session)(nil)
)

// NewSession implements vad.Engine.
func (e *Engine) NewSession(_ vad.Config) (vad.Session, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	if e.SessionResult != nil {
		return e.SessionResult, nil
	}
	return &Session{}, nil
}

// Session is a mock implementation of vad.Session. Events are returned in
// order; once exhausted, vad.Silence events are returned.
//
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	// Events is the sequence of events returned by ProcessFrame.
	Events []vad.Event

	// Err, if non-nil, is returned as the error from every ProcessFrame call.
	Err error

	// Frames records every frame passed to ProcessFrame.
	Frames [][]byte

	// ResetCount counts Reset invocations.
	ResetCount int

	// CloseCount counts Close invocations.
	CloseCount int

	next int
}

// ProcessFrame implements vad.Session.
func (s *Session) ProcessFrame(frame []byte) (vad.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(frame))
	copy(cp, frame)
	s.Frames = append(s.Frames, cp)

	if s.Err != nil {
		return vad.Event{}, s.Err
	}
	if s.next >= len(s.Events) {
		return vad.Event{Type: vad.Silence}, nil
	}
	ev := s.Events[s.next]
	s.next++
	return ev, nil
}

// Reset implements vad.Session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResetCount++
}

// Close implements vad.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCount++
	return nil
}

// FrameCount returns the number of frames processed so far.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Frames)
}
