// Package stt defines the Transcriber interface for Speech-to-Text backends.
//
// A transcriber wraps a batch transcription service (e.g., a local
// whisper-server instance or a hosted Whisper API) and converts a finished
// WAV recording into text. The interview orchestrator records each answer to
// a WAV file and hands the file to the transcriber once the turn ends, so a
// batch contract is all that is required — no streaming session management.
//
// Implementations must be safe for concurrent use; multiple interview
// sessions may transcribe simultaneously.
package stt

import "context"

// Transcriber is the abstraction over any speech-to-text backend.
type Transcriber interface {
	// Transcribe converts the WAV file at wavPath into text.
	//
	// An empty string with a nil error is a valid result (silence, or audio
	// the model could not decode). Callers must treat empty text as an
	// uninformative answer, never as a fatal condition.
	Transcribe(ctx context.Context, wavPath string) (string, error)
}
