package server

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxhire/voxhire/internal/interview"
)

const candidateSecret = "s3cret-per-candidate"

func newAuthStore(t *testing.T) *interview.MemStore {
	t.Helper()
	store := interview.NewMemStore()
	store.Put(&interview.Record{
		ID:              "iv-7",
		CandidateName:   "Grace Hopper",
		CandidateEmail:  "grace@example.com",
		CandidateSecret: candidateSecret,
		CompanyName:     "Voxhire",
		JobDescription:  "Compiler engineer",
	})
	return store
}

func signToken(t *testing.T, interviewID, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		InterviewID: interviewID,
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestAuthenticator_ValidToken(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newAuthStore(t))
	token := signToken(t, "iv-7", candidateSecret)

	rec, err := a.Authenticate(context.Background(), token, "grace@example.com")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if rec.ID != "iv-7" {
		t.Errorf("record ID = %q, want iv-7", rec.ID)
	}
}

// Email comparison is case-insensitive; mail addresses are routed that way.
func TestAuthenticator_EmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newAuthStore(t))
	token := signToken(t, "iv-7", candidateSecret)

	if _, err := a.Authenticate(context.Background(), token, "Grace@Example.COM"); err != nil {
		t.Errorf("Authenticate() error: %v", err)
	}
}

func TestAuthenticator_Rejections(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newAuthStore(t))

	tests := []struct {
		name    string
		token   string
		email   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			email:   "grace@example.com",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage token",
			token:   "not.a.jwt",
			email:   "grace@example.com",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong signing secret",
			token:   signToken(t, "iv-7", "someone-elses-secret"),
			email:   "grace@example.com",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "unknown interview",
			token:   signToken(t, "iv-missing", candidateSecret),
			email:   "grace@example.com",
			wantErr: ErrUnknownInterview,
		},
		{
			name:    "wrong email",
			token:   signToken(t, "iv-7", candidateSecret),
			email:   "mallory@example.com",
			wantErr: ErrEmailMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := a.Authenticate(context.Background(), tc.token, tc.email)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// An unsigned token must never pass, even with a matching interview ID.
func TestAuthenticator_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator(newAuthStore(t))
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		InterviewID: "iv-7",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := a.Authenticate(context.Background(), token, "grace@example.com"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidToken", err)
	}
}
