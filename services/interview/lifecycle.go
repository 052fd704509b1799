package interview

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Engine owns the session state machine. It is stateless between calls; all
// session state lives in the Store, and every mutation is guarded there.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates an Engine bound to the provided store. now is optional
// and defaults to time.Now; tests inject a fixed clock.
func NewEngine(store Store, now func() time.Time) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, now: now}, nil
}

// Resolve maps an interview token to its session plus immutable template and
// candidate context. Expiry is lazy: an invited session past its deadline is
// transitioned to expired here, on access, and the call fails with ErrExpired.
// Completed sessions resolve successfully for read access.
func (e *Engine) Resolve(ctx context.Context, token string) (*Resolved, error) {
	sess, err := e.fetch(ctx, token)
	if err != nil {
		return nil, err
	}

	tpl, err := e.store.GetTemplate(ctx, sess.TemplateID)
	if err != nil {
		return nil, err
	}

	resolved := &Resolved{Session: sess, Template: tpl}
	if sess.CandidateID != nil {
		cand, err := e.store.GetCandidate(ctx, *sess.CandidateID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		resolved.Candidate = cand
	}
	return resolved, nil
}

// Start moves the session from invited to in_progress. A second start is
// rejected with InvalidTransition rather than silently restarting, so
// startedAt is never clobbered.
func (e *Engine) Start(ctx context.Context, token string) (*Session, error) {
	sess, err := e.fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusInvited {
		return nil, DenyTransition(ActionStart, sess.Status)
	}
	return e.store.StartSession(ctx, sess.ID, e.now().UTC())
}

// AppendTurn records one conversation turn on an in_progress session. Turns
// are append-only; ordering is append order. Conversational coherence is the
// voice agent's problem, not ours: any non-empty role/content pair is taken.
func (e *Engine) AppendTurn(ctx context.Context, token string, turn Turn) (*Session, error) {
	turn.Role = Role(strings.TrimSpace(string(turn.Role)))
	if turn.Role != RoleInterviewer && turn.Role != RoleCandidate {
		return nil, ErrInvalidTurn
	}
	if strings.TrimSpace(turn.Content) == "" {
		return nil, ErrInvalidTurn
	}
	if turn.At.IsZero() {
		turn.At = e.now().UTC()
	}

	sess, err := e.fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusInProgress {
		return nil, DenyTransition(ActionTurn, sess.Status)
	}
	return e.store.AppendTurn(ctx, sess.ID, turn)
}

// Complete moves the session from in_progress to completed, derives the
// flattened transcript from the final turn sequence, and records metrics.
// When two completes race the store's guard makes the loser observe the
// completed state and fail with ErrAlreadyCompleted.
func (e *Engine) Complete(ctx context.Context, token string, metrics map[string]any) (*Session, error) {
	sess, err := e.fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusInProgress {
		return nil, DenyTransition(ActionComplete, sess.Status)
	}
	return e.store.CompleteSession(ctx, sess.ID, e.now().UTC(), metrics, FlattenTranscript)
}

// fetch loads the session and applies the expiry check. There is no
// background sweep: an invited session past its deadline is corrected to
// expired the next time anyone asks, then the request fails with ErrExpired.
// A session that started before its deadline is allowed to finish.
func (e *Engine) fetch(ctx context.Context, token string) (*Session, error) {
	sess, err := e.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := e.checkExpiry(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (e *Engine) checkExpiry(ctx context.Context, sess *Session) error {
	if sess.Status != StatusInvited || !e.now().After(sess.ExpiresAt) {
		return nil
	}
	if err := e.store.ExpireSession(ctx, sess.ID); err != nil {
		return err
	}
	sess.Status = StatusExpired
	return ErrExpired
}
