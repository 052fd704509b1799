package interview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and local development. A
// single mutex stands in for the database's per-row atomicity: every guarded
// update checks status and mutates under the same critical section, giving
// the same linearizable behaviour the SQL store gets from conditional
// updates.
type MemStore struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*Session
	byToken    map[string]uuid.UUID
	templates  map[uuid.UUID]*Template
	candidates map[uuid.UUID]*Candidate
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:   make(map[uuid.UUID]*Session),
		byToken:    make(map[string]uuid.UUID),
		templates:  make(map[uuid.UUID]*Template),
		candidates: make(map[uuid.UUID]*Candidate),
	}
}

// PutTemplate registers a template.
func (m *MemStore) PutTemplate(tpl *Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.ID] = tpl
}

// PutCandidate registers a candidate.
func (m *MemStore) PutCandidate(c *Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = c
}

// PutSession registers a session keyed by both id and token.
func (m *MemStore) PutSession(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.byToken[s.Token] = s.ID
}

func (m *MemStore) GetSessionByToken(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return m.snapshot(m.sessions[id]), nil
}

func (m *MemStore) GetTemplate(_ context.Context, id uuid.UUID) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tpl
	return &copied, nil
}

func (m *MemStore) GetCandidate(_ context.Context, id uuid.UUID) (*Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *MemStore) ExpireSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Status == StatusInvited {
		sess.Status = StatusExpired
	}
	return nil
}

func (m *MemStore) StartSession(_ context.Context, id uuid.UUID, at time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Status != StatusInvited {
		return nil, DenyTransition(ActionStart, sess.Status)
	}
	if at.After(sess.ExpiresAt) {
		sess.Status = StatusExpired
		return nil, ErrExpired
	}
	sess.Status = StatusInProgress
	sess.StartedAt = &at
	return m.snapshot(sess), nil
}

func (m *MemStore) AppendTurn(_ context.Context, id uuid.UUID, turn Turn) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Status != StatusInProgress {
		return nil, DenyTransition(ActionTurn, sess.Status)
	}
	sess.Turns = append(sess.Turns, turn)
	return m.snapshot(sess), nil
}

func (m *MemStore) CompleteSession(_ context.Context, id uuid.UUID, at time.Time, metrics map[string]any, flatten FlattenFunc) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Status != StatusInProgress {
		return nil, DenyTransition(ActionComplete, sess.Status)
	}
	sess.Status = StatusCompleted
	sess.CompletedAt = &at
	sess.Transcript = flatten(sess.Turns)
	if metrics != nil {
		sess.Metrics = metrics
	}
	return m.snapshot(sess), nil
}

// snapshot copies the session so callers never alias mutable store state.
func (m *MemStore) snapshot(sess *Session) *Session {
	copied := *sess
	copied.Turns = append([]Turn(nil), sess.Turns...)
	return &copied
}
