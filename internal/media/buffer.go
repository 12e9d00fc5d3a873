// Package media accumulates streamed media bytes per session and turns them
// into on-disk artifacts.
//
// Each interview session owns two [Buffer] values, one for the candidate's
// microphone PCM and one for the camera frames. Producers (the WebSocket read
// loop) append chunks as they arrive; the consumer (the turn orchestrator)
// drains a buffer atomically when a turn advances, so a chunk is attributed
// to exactly one answer and none is lost or duplicated across turns.
package media

import "sync"

// Buffer is a thread-safe append-only byte accumulator with atomic drain.
//
// The zero value is ready to use.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// Append copies p onto the end of the buffer. The caller may reuse p after
// Append returns.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
}

// SnapshotAndClear atomically returns the accumulated bytes and resets the
// buffer to empty. Bytes appended concurrently land either in the returned
// snapshot or in the next one, never both. Returns nil when the buffer is
// empty.
func (b *Buffer) SnapshotAndClear() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.data
	b.data = nil
	return data
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
