// Package interview defines the interview record and its persistence
// contract.
//
// A record is created out-of-band (by whatever scheduling system invites the
// candidate) and carries everything a session needs: the job context fed to
// the question model and the per-candidate secret used to verify the
// connection token. The live session only ever reads a record, marks it
// started, and saves the final results.
package interview

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one scheduled interview.
type Record struct {
	// ID is the interview identifier carried in the connection token.
	ID string `json:"id"`

	// CandidateName is the candidate's display name, embedded in prompts.
	CandidateName string `json:"candidate_name"`

	// CandidateEmail must match the email presented at connect time.
	CandidateEmail string `json:"candidate_email"`

	// CandidateSecret is the per-candidate HMAC secret that signed the
	// candidate's connection token. Never exposed to clients.
	CandidateSecret string `json:"-"`

	// CompanyName and JobDescription ground the interviewer prompts.
	CompanyName    string `json:"company_name"`
	JobDescription string `json:"job_description"`

	// Started is set when the candidate first connects.
	Started bool `json:"started"`

	// Completed is set when the interview reached a natural end rather than
	// a mid-turn disconnect.
	Completed bool `json:"completed"`

	// Transcript and Feedback hold the saved results, when present.
	Transcript json.RawMessage `json:"transcript,omitempty"`
	Feedback   json.RawMessage `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Results is what a finished session hands back for persistence.
type Results struct {
	Transcript json.RawMessage
	Feedback   json.RawMessage
	Completed  bool
}

// Store provides access to interview records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a record by ID. Returns (nil, nil) if not found.
	Get(ctx context.Context, id string) (*Record, error)

	// MarkStarted flags the interview as started. Marking an already
	// started interview is not an error.
	MarkStarted(ctx context.Context, id string) error

	// SaveResults stores the final transcript, feedback, and completion
	// flag. Returns an error if the record does not exist.
	SaveResults(ctx context.Context, id string, res Results) error
}
