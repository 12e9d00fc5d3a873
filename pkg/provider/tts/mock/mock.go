// Package mock provides a test double for the tts.Synthesizer interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/tts"
)

// Synthesizer is a mock implementation of tts.Synthesizer. It returns Audio
// for every call and records the texts it was asked to speak. Set Err to
// inject a failure.
//
// All methods are safe for concurrent use.
type Synthesizer struct {
	mu sync.Mutex

	// Audio is returned by every Synthesize call.
	Audio []byte

	// Err, if non-nil, is returned as the error from every Synthesize call.
	Err error

	// Texts records every text passed to Synthesize, in order.
	Texts []string
}

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Texts = append(s.Texts, text)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Audio, nil
}

// CallCount returns the number of Synthesize invocations so far.
func (s *Synthesizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Texts)
}
