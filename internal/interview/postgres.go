package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the interviews table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS interviews (
    id               TEXT PRIMARY KEY,
    candidate_name   TEXT NOT NULL,
    candidate_email  TEXT NOT NULL,
    candidate_secret TEXT NOT NULL,
    company_name     TEXT NOT NULL DEFAULT '',
    job_description  TEXT NOT NULL DEFAULT '',
    started          BOOLEAN NOT NULL DEFAULT FALSE,
    completed        BOOLEAN NOT NULL DEFAULT FALSE,
    transcript       JSONB,
    feedback         JSONB,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_interviews_candidate_email ON interviews(candidate_email);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// interviews table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("interview: migrate: %w", err)
	}
	return nil
}

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	const query = `
		SELECT id, candidate_name, candidate_email, candidate_secret,
		       company_name, job_description, started, completed,
		       transcript, feedback, created_at, updated_at
		FROM interviews WHERE id = $1`

	var rec Record
	err := s.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.CandidateName, &rec.CandidateEmail, &rec.CandidateSecret,
		&rec.CompanyName, &rec.JobDescription, &rec.Started, &rec.Completed,
		&rec.Transcript, &rec.Feedback, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("interview: get %q: %w", id, err)
	}
	return &rec, nil
}

// MarkStarted implements [Store].
func (s *PostgresStore) MarkStarted(ctx context.Context, id string) error {
	const query = `UPDATE interviews SET started = TRUE, updated_at = now() WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("interview: mark started %q: %w", id, err)
	}
	return nil
}

// SaveResults implements [Store].
func (s *PostgresStore) SaveResults(ctx context.Context, id string, res Results) error {
	const query = `
		UPDATE interviews
		SET transcript = $2, feedback = $3, completed = $4, updated_at = now()
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, res.Transcript, res.Feedback, res.Completed)
	if err != nil {
		return fmt.Errorf("interview: save results %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("interview: save results: no record with id %q", id)
	}
	return nil
}
