package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxhire/voxhire/internal/interview"
)

// Authentication failure reasons, distinguished so the HTTP layer can pick a
// status code without parsing error strings.
var (
	// ErrInvalidToken means the token is malformed, unsigned, or its
	// signature does not match the candidate's secret.
	ErrInvalidToken = errors.New("server: invalid interview token")

	// ErrUnknownInterview means the token names an interview that does not
	// exist.
	ErrUnknownInterview = errors.New("server: unknown interview")

	// ErrEmailMismatch means the presented email does not belong to the
	// interview's candidate.
	ErrEmailMismatch = errors.New("server: email does not match candidate")
)

// tokenClaims is the JWT payload issued to candidates when an interview is
// scheduled.
type tokenClaims struct {
	InterviewID string `json:"interviewId"`
	jwt.RegisteredClaims
}

// Authenticator resolves an interview token to its [interview.Record].
//
// Tokens are signed per candidate: the interview ID is read from the unverified
// payload first, the candidate's secret is looked up in the store, and only
// then is the signature checked against that secret. A forged interview ID
// therefore fails at the store lookup, never at a shared key.
type Authenticator struct {
	store  interview.Store
	parser *jwt.Parser
}

// NewAuthenticator creates an Authenticator backed by store.
func NewAuthenticator(store interview.Store) *Authenticator {
	return &Authenticator{
		store:  store,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Authenticate validates token and email and returns the interview record the
// session should run.
func (a *Authenticator) Authenticate(ctx context.Context, token, email string) (*interview.Record, error) {
	if token == "" || email == "" {
		return nil, ErrInvalidToken
	}

	var claims tokenClaims
	if _, _, err := a.parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.InterviewID == "" {
		return nil, fmt.Errorf("%w: missing interviewId claim", ErrInvalidToken)
	}

	rec, err := a.store.Get(ctx, claims.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("server: auth lookup: %w", err)
	}
	if rec == nil {
		return nil, ErrUnknownInterview
	}

	if _, err := a.parser.ParseWithClaims(token, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return []byte(rec.CandidateSecret), nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !strings.EqualFold(email, rec.CandidateEmail) {
		return nil, ErrEmailMismatch
	}
	return rec, nil
}
