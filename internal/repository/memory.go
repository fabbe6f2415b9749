package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cleo-api/internal/model"
)

// MemorySessionStore keeps sessions in process. Sessions are stored as JSON
// so callers never share memory with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]memoryEntry
	ttl      time.Duration
}

type memoryEntry struct {
	data      []byte
	version   int64
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[uuid.UUID]memoryEntry),
		ttl:      ttl,
	}
}

func (m *MemorySessionStore) Create(_ context.Context, s *model.DemoSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	m.sessions[s.ID] = m.entry(data, s.Version)
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id uuid.UUID) (*model.DemoSession, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || e.expired() {
		return nil, nil
	}

	var s model.DemoSession
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *model.DemoSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[s.ID]
	if !ok || e.expired() {
		return ErrSessionNotFound
	}
	if e.version != s.Version {
		return ErrSessionConflict
	}

	next := *s
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	m.sessions[s.ID] = m.entry(data, next.Version)
	s.Version, s.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Sweep removes expired sessions.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.expired() {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *MemorySessionStore) entry(data []byte, version int64) memoryEntry {
	e := memoryEntry{data: data, version: version}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}
	return e
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}
