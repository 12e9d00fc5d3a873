// Package mock provides a test double for the stt.Transcriber interface.
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/stt"
)

// Transcriber is a mock implementation of stt.Transcriber. Texts are
// returned in order; once exhausted the last text repeats. Set Err to
// inject a failure on every call.
//
// All methods are safe for concurrent use.
type Transcriber struct {
	mu sync.Mutex

	// Texts is the sequence of transcripts returned by Transcribe.
	Texts []string

	// Err, if non-nil, is returned as the error from every Transcribe call.
	Err error

	// Paths records every wavPath passed to Transcribe, in order.
	Paths []string

	next int
}

// Compile-time interface assertion.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(_ context.Context, wavPath string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Paths = append(t.Paths, wavPath)

	if t.Err != nil {
		return "", t.Err
	}
	if len(t.Texts) == 0 {
		return "", nil
	}

	i := t.next
	if i >= len(t.Texts) {
		i = len(t.Texts) - 1
	}
	t.next++
	return t.Texts[i], nil
}

// CallCount returns the number of Transcribe invocations so far.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Paths)
}
