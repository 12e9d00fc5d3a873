// Package tts defines the Synthesizer interface for Text-to-Speech backends.
//
// A synthesizer wraps a speech synthesis service (e.g., ElevenLabs) and turns
// a question's text into audio bytes that are delivered to the candidate
// alongside the chat message. Synthesis failures are non-fatal by contract:
// the orchestrator still delivers the question as text.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Synthesizer is the abstraction over any TTS backend.
type Synthesizer interface {
	// Synthesize converts text into audio bytes in the provider's configured
	// output format. Returns an error if synthesis fails; callers treat the
	// failure as non-fatal and deliver the text without audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
