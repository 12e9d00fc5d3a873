// Package llm defines the Client interface for Large Language Model backends.
//
// An LLM client wraps a remote or local model API (e.g., OpenAI GPT-4o or an
// Ollama instance) and exposes a uniform completion interface so the interview
// orchestrator can generate questions and feedback without coupling to any
// specific SDK.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// Message represents a single message in a conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Request carries everything the LLM needs to produce a response. Callers
// should treat a zero-value request as invalid; at minimum Messages must be
// non-empty.
type Request struct {
	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation history. Providers that lack a dedicated system field should
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0].
	// Zero means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// ForceJSON requests the provider's structured-output mode where available
	// (e.g., OpenAI's json_object response format). Providers without native
	// support ignore this flag; callers must still run the response through
	// JSON recovery because no backend guarantees well-formed output.
	ForceJSON bool
}

// Client is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Client interface {
	// Complete sends req to the model and waits for the full text response.
	//
	// Returns an error if the request fails or if ctx is cancelled before the
	// completion arrives. The returned text carries no structural guarantee —
	// even with ForceJSON set it may be malformed and must be parsed
	// defensively.
	Complete(ctx context.Context, req Request) (string, error)
}
