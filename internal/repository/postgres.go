package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourusername/cleo-api/internal/model"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS demo_sessions (
	id          UUID PRIMARY KEY,
	step        TEXT NOT NULL,
	user_email  TEXT NOT NULL DEFAULT '',
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ
);

ALTER TABLE demo_sessions ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0;

CREATE INDEX IF NOT EXISTS demo_sessions_expires_at_idx ON demo_sessions (expires_at);
`

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// Migrate creates the demo_sessions table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, sessionSchema); err != nil {
		return fmt.Errorf("applying session schema: %w", err)
	}
	return nil
}

// PostgresSessionStore keeps each session as one JSONB document.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresSessionStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool, ttl: ttl}
}

func (r *PostgresSessionStore) Create(ctx context.Context, s *model.DemoSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO demo_sessions (id, step, user_email, data, version, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.Step, s.Setup.UserEmail, data, s.Version, s.CreatedAt, s.UpdatedAt, r.expiresAt())
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get returns (nil, nil) for unknown or expired sessions.
func (r *PostgresSessionStore) Get(ctx context.Context, id uuid.UUID) (*model.DemoSession, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `
		SELECT data
		FROM demo_sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())
	`, id).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}

	var s model.DemoSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// Save writes s only if the row is still at s.Version.
func (r *PostgresSessionStore) Save(ctx context.Context, s *model.DemoSession) error {
	next := *s
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE demo_sessions
		SET step = $2, user_email = $3, data = $4, updated_at = $5, expires_at = $6, version = $7
		WHERE id = $1 AND version = $8 AND (expires_at IS NULL OR expires_at > now())
	`, s.ID, next.Step, next.Setup.UserEmail, data, next.UpdatedAt, r.expiresAt(), next.Version, s.Version)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.saveMiss(ctx, s.ID)
	}

	s.Version, s.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

// saveMiss tells a stale version apart from a missing session.
func (r *PostgresSessionStore) saveMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM demo_sessions
			WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())
		)
	`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if exists {
		return ErrSessionConflict
	}
	return ErrSessionNotFound
}

func (r *PostgresSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM demo_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// PurgeExpired deletes sessions past their expiry.
func (r *PostgresSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM demo_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresSessionStore) expiresAt() *time.Time {
	if r.ttl <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(r.ttl)
	return &t
}
