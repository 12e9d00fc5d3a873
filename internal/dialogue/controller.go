// Package dialogue turns a raw language-model client into a structured
// interview conversation.
//
// The [Controller] keeps the ordered transcript, issues interview questions
// grounded in the job context, and produces the post-interview feedback. All
// model output passes through a bounded JSON-recovery step before use, since
// generative services do not reliably emit well-formed JSON.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxhire/voxhire/pkg/provider/llm"
)

const questionMaxTokens = 100

// RoleUser and RoleAssistant are the two transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single transcript entry.
type Turn struct {
	Message        string    `json:"message"`
	Role           string    `json:"role"`
	InterviewEnded bool      `json:"interview_ended"`
	Timestamp      time.Time `json:"timestamp"`
}

// Feedback is the structured post-interview evaluation. Confidence and
// TotalScore are kept as raw JSON because the scoring model emits them
// sometimes as numbers, sometimes as quoted strings; they are passed through
// to storage without validation.
type Feedback struct {
	Text       string          `json:"text"`
	Confidence json.RawMessage `json:"confidence,omitempty"`
	TotalScore json.RawMessage `json:"total_score,omitempty"`
	KeyPoints  []string        `json:"key_points,omitempty"`
}

// questionResponse is the wire shape the question model is instructed to emit.
type questionResponse struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const typeInterviewEnded = "Interview Ended"

// Controller drives one interview conversation. It is owned by a single
// session and is not safe for concurrent use.
type Controller struct {
	questioner llm.Client
	scorer     llm.Client
	log        *slog.Logger

	companyName    string
	jobDescription string
	candidateName  string

	turns []Turn
	now   func() time.Time
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithScorer sets a separate client for feedback generation. Defaults to the
// question client.
func WithScorer(c llm.Client) Option {
	return func(ctl *Controller) {
		ctl.scorer = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(ctl *Controller) {
		ctl.log = log
	}
}

// withClock overrides the timestamp source in tests.
func withClock(now func() time.Time) Option {
	return func(ctl *Controller) {
		ctl.now = now
	}
}

// NewController creates a Controller for one interview.
func NewController(questioner llm.Client, companyName, jobDescription, candidateName string, opts ...Option) *Controller {
	ctl := &Controller{
		questioner:     questioner,
		scorer:         questioner,
		log:            slog.Default(),
		companyName:    companyName,
		jobDescription: jobDescription,
		candidateName:  candidateName,
		now:            time.Now,
	}
	for _, o := range opts {
		o(ctl)
	}
	return ctl
}

// OpeningQuestion produces the first interview question before any candidate
// answer exists.
func (ctl *Controller) OpeningQuestion(ctx context.Context) (ended bool, text string, err error) {
	return ctl.ask(ctx, openingInstruction, false)
}

// NextQuestion appends the candidate's answer to the transcript and produces
// the next question. ended reports that the model chose to finish the
// interview, or that its output was unrecoverable — either way the caller
// should wind the session down rather than wait for more input.
func (ctl *Controller) NextQuestion(ctx context.Context, answer string) (ended bool, text string, err error) {
	return ctl.ask(ctx, answer, true)
}

func (ctl *Controller) ask(ctx context.Context, input string, record bool) (bool, string, error) {
	if record {
		ctl.turns = append(ctl.turns, Turn{
			Message:   input,
			Role:      RoleUser,
			Timestamp: ctl.now(),
		})
	}

	req := llm.Request{
		SystemPrompt: fmt.Sprintf(systemPromptFmt, ctl.companyName, ctl.jobDescription, ctl.candidateName),
		Messages:     ctl.history(input, record),
		MaxTokens:    questionMaxTokens,
		ForceJSON:    true,
	}
	raw, err := ctl.questioner.Complete(ctx, req)
	if err != nil {
		return false, "", fmt.Errorf("dialogue: next question: %w", err)
	}

	var resp questionResponse
	obj := extractObject(raw)
	if obj == nil || json.Unmarshal(obj, &resp) != nil {
		// Unrecoverable output produces no question; the interview ends
		// gracefully instead of hanging.
		ctl.log.Warn("question response unrecoverable, ending interview", "raw_len", len(raw))
		return true, "", nil
	}

	ended := resp.Type == typeInterviewEnded
	ctl.turns = append(ctl.turns, Turn{
		Message:        resp.Text,
		Role:           RoleAssistant,
		InterviewEnded: ended,
		Timestamp:      ctl.now(),
	})
	return ended, resp.Text, nil
}

// history renders the transcript as chat messages for the question model.
// When record is false the input is an instruction, not a candidate answer,
// and is appended without entering the transcript.
func (ctl *Controller) history(input string, record bool) []llm.Message {
	msgs := make([]llm.Message, 0, len(ctl.turns)+1)
	for _, turn := range ctl.turns {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Message})
	}
	if !record {
		msgs = append(msgs, llm.Message{Role: RoleUser, Content: input})
	}
	return msgs
}

// Feedback evaluates the finished interview. The transcript is embedded in a
// single prompt; the scoring model's output goes through the same JSON
// recovery as questions. An unrecoverable response yields an empty Feedback,
// never an error from parsing.
func (ctl *Controller) Feedback(ctx context.Context) (*Feedback, error) {
	transcript, err := json.Marshal(ctl.turns)
	if err != nil {
		return nil, fmt.Errorf("dialogue: encode transcript: %w", err)
	}

	req := llm.Request{
		Messages: []llm.Message{{
			Role:    RoleUser,
			Content: fmt.Sprintf(analysisPromptFmt, ctl.candidateName, transcript),
		}},
		ForceJSON: true,
	}
	raw, err := ctl.scorer.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dialogue: feedback: %w", err)
	}

	var fb Feedback
	obj := extractObject(raw)
	if obj == nil || json.Unmarshal(obj, &fb) != nil {
		ctl.log.Warn("feedback response unrecoverable", "raw_len", len(raw))
		return &Feedback{}, nil
	}
	return &fb, nil
}

// Turns returns a copy of the transcript so far.
func (ctl *Controller) Turns() []Turn {
	out := make([]Turn, len(ctl.turns))
	copy(out, ctl.turns)
	return out
}
