// Package mock provides a test double for the encoder.Encoder interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/internal/encoder"
)

// Call records one Encode invocation.
type Call struct {
	RawPath string
	OutPath string
}

// Encoder is a mock implementation of encoder.Encoder. Set Err to inject a
// failure.
//
// All methods are safe for concurrent use.
type Encoder struct {
	mu sync.Mutex

	// Err, if non-nil, is returned as the error from every Encode call.
	Err error

	// Calls records every Encode invocation, in order.
	Calls []Call
}

// Compile-time interface assertion.
var _ encoder.Encoder = (*Encoder)(nil)

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(_ context.Context, rawPath, outPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls = append(e.Calls, Call{RawPath: rawPath, OutPath: outPath})
	return e.Err
}

// CallCount returns the number of Encode invocations so far.
func (e *Encoder) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Calls)
}
