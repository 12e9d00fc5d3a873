// Package mock provides a test double for the llm.Client interface.
//
// Use Client in unit tests to verify the requests the dialogue layer builds
// and to feed controlled responses without a live LLM backend.
//
// Example:
//
//	c := &mock.Client{Responses: []string{`{"type": "Question", "text": "Hi"}`}}
//	text, err := c.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/voxhire/voxhire/pkg/provider/llm"
)

// Client is a mock implementation of llm.Client. Responses are returned in
// order; once exhausted the last response repeats. Set Err to inject a
// failure on every call.
//
// All methods are safe for concurrent use. Configure fields before handing
// the mock to the code under test.
type Client struct {
	mu sync.Mutex

	// Responses is the sequence of raw texts returned by Complete.
	Responses []string

	// Err, if non-nil, is returned as the error from every Complete call.
	Err error

	// Block, if non-nil, is received from on every Complete call after the
	// request has been recorded, so tests can hold a completion in flight.
	// Close the channel to release all pending and future calls.
	Block chan struct{}

	// Requests records every request passed to Complete, in order.
	Requests []llm.Request

	next int
}

// Compile-time interface assertion.
var _ llm.Client = (*Client)(nil)

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	block := c.Block
	failure := c.Err
	var text string
	if len(c.Responses) > 0 {
		i := c.next
		if i >= len(c.Responses) {
			i = len(c.Responses) - 1
		}
		c.next++
		text = c.Responses[i]
	}
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if failure != nil {
		return "", failure
	}
	return text, nil
}

// CallCount returns the number of Complete invocations so far.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
