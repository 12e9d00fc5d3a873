// Package vad defines the Engine interface for Voice Activity Detection
// backends.
//
// A VAD engine wraps a frame-level speech detector (an energy heuristic, a
// Silero-style model server, or a custom classifier) and surfaces it as a
// stateful per-stream session. Each session maintains its own internal state
// (smoothing history, in-speech flag) so that multiple concurrent audio
// streams can be processed independently.
//
// VAD is synchronous by design: ProcessFrame returns immediately with a
// detection result, making it suitable for the low-latency path that gates
// the silence timer in the interview orchestrator.
//
// Engine implementations must be safe for concurrent use across sessions. A
// single Session should not be shared across goroutines unless the
// implementation explicitly documents thread safety.
package vad

// Config holds the parameters for a VAD session.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must match the rate of the
	// PCM frames passed to ProcessFrame. Common values: 8000, 16000, 48000.
	SampleRate int

	// FrameSamples is the number of 16-bit samples per frame. ProcessFrame
	// returns an error if the supplied frame does not match this size.
	FrameSamples int
}

// EventType enumerates VAD detection states.
type EventType int

const (
	// SpeechStart indicates speech has just begun.
	SpeechStart EventType = iota

	// SpeechContinue indicates ongoing speech.
	SpeechContinue

	// SpeechEnd indicates speech has just ended.
	SpeechEnd

	// Silence indicates no speech detected.
	Silence
)

// Event represents a detection result for a single audio frame.
type Event struct {
	// Type is the detection result.
	Type EventType

	// Probability is the speech probability score (0.0–1.0). Heuristic
	// engines report a normalised energy level instead of a true probability.
	Probability float64
}

// Boundary reports whether the event marks a speech boundary (start or end).
// Boundary events are what refresh the orchestrator's last-speech timestamp.
func (e Event) Boundary() bool {
	return e.Type == SpeechStart || e.Type == SpeechEnd
}

// Session represents an active VAD session for a single audio stream.
type Session interface {
	// ProcessFrame analyses a single audio frame and returns the detection
	// result. The frame must be raw 16-bit little-endian PCM mono of exactly
	// Config.FrameSamples samples. It must not block.
	ProcessFrame(frame []byte) (Event, error)

	// Reset clears all accumulated detection state without closing the
	// session. The orchestrator resets once per processing pass so detection
	// windows do not bleed state across unrelated audio gaps.
	Reset()

	// Close releases all resources associated with the session. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Engine is the factory for VAD sessions.
type Engine interface {
	// NewSession creates a new VAD session with the given configuration.
	// Returns an error if the configuration is invalid or resources cannot
	// be allocated.
	NewSession(cfg Config) (Session, error)
}
