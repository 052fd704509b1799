package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no session or template exists for the given key.
	ErrNotFound = errors.New("not found")
	// ErrExpired indicates the session deadline passed while still invited.
	ErrExpired = errors.New("interview link expired")
	// ErrAlreadyCompleted indicates a mutation was attempted after completion.
	ErrAlreadyCompleted = errors.New("interview already completed")
	// ErrInvalidAction indicates an unrecognized action name.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidTurn indicates a turn with an unknown role or empty content.
	ErrInvalidTurn = errors.New("invalid turn")
	// ErrUnauthorized indicates a staff request without identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrVoiceUnavailable indicates the voice transport credential is missing.
	ErrVoiceUnavailable = errors.New("voice service unavailable")
	// ErrStorageUnavailable wraps transient store failures that are safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InvalidTransitionError reports an action that is illegal for the session's
// current state, naming both so callers can branch deterministically.
type InvalidTransitionError struct {
	Action Action
	Status Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s interview in state %q", e.Action, e.Status)
}

// DenyTransition maps a failed state guard to the error taxonomy. Completed
// sessions always report ErrAlreadyCompleted and expired sessions ErrExpired;
// every other mismatch is an InvalidTransitionError.
func DenyTransition(action Action, status Status) error {
	switch status {
	case StatusCompleted:
		return ErrAlreadyCompleted
	case StatusExpired:
		return ErrExpired
	default:
		return &InvalidTransitionError{Action: action, Status: status}
	}
}

// StorageError wraps a transient store failure so callers can distinguish it
// from the terminal taxonomy via errors.Is(err, ErrStorageUnavailable).
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
