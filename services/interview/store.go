package interview

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FlattenFunc derives the full transcript from the final turn sequence. The
// store runs it inside the same atomic unit that flips the session to
// completed, so the derived transcript always matches the persisted turns.
type FlattenFunc func(turns []Turn) string

// Store is the persistence contract the engine depends on. Every mutating
// call is conditional on the session's current status, enforced by the
// store's own transactional or compare-and-set update, never by an
// in-process lock: concurrent requests may run on independent processes.
//
// Guard failures are reported through DenyTransition so the engine surfaces
// the taxonomy unchanged. Transient failures are wrapped with StorageError.
type Store interface {
	GetSessionByToken(ctx context.Context, token string) (*Session, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)

	// ExpireSession moves an invited session to expired. A no-op if another
	// request already applied the transition.
	ExpireSession(ctx context.Context, id uuid.UUID) error

	// StartSession moves invited -> in_progress, stamping startedAt. The
	// deadline guard is re-checked inside the update so a session cannot
	// start after its expiry even if the caller's check raced.
	StartSession(ctx context.Context, id uuid.UUID, at time.Time) (*Session, error)

	// AppendTurn appends a turn to an in_progress session. The append is a
	// single atomic operation against the stored sequence; two concurrent
	// appends both survive, in either order.
	AppendTurn(ctx context.Context, id uuid.UUID, turn Turn) (*Session, error)

	// CompleteSession moves in_progress -> completed, stamping completedAt,
	// writing the flattened transcript exactly once, and recording metrics.
	CompleteSession(ctx context.Context, id uuid.UUID, at time.Time, metrics map[string]any, flatten FlattenFunc) (*Session, error)
}
