package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/cleo-api/internal/model"
)

var (
	// ErrSessionNotFound is returned when saving or deleting a missing session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionConflict is returned by Save when the stored session has
	// moved past the version the caller loaded.
	ErrSessionConflict = errors.New("session was modified concurrently")
)

// maxUpdateAttempts bounds the Get/apply/Save retries in Update.
const maxUpdateAttempts = 10

// SessionStore persists demo sessions. Get returns (nil, nil) for an
// unknown ID. Save only succeeds when s.Version matches the stored version,
// and advances s.Version and s.UpdatedAt on success.
type SessionStore interface {
	Create(ctx context.Context, s *model.DemoSession) error
	Get(ctx context.Context, id uuid.UUID) (*model.DemoSession, error)
	Save(ctx context.Context, s *model.DemoSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Update loads the session, applies fn and saves it, starting over from a
// fresh copy whenever another writer got there first. An error from fn
// aborts the update and is returned as is.
func Update(ctx context.Context, store SessionStore, id uuid.UUID, fn func(*model.DemoSession) error) (*model.DemoSession, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		s, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, ErrSessionNotFound
		}

		if err := fn(s); err != nil {
			return nil, err
		}

		err = store.Save(ctx, s)
		if errors.Is(err, ErrSessionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("updating session %s: %w", id, ErrSessionConflict)
}

// Restart sends a stored session back to the setup step.
func Restart(ctx context.Context, store SessionStore, id uuid.UUID) (*model.DemoSession, error) {
	s, err := Update(ctx, store, id, func(s *model.DemoSession) error {
		s.Restart()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("restarting session: %w", err)
	}
	return s, nil
}
