package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"voxhire/services/interview"
)

const requestTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, format string, args ...any) {
	respondJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// respondTaxonomy maps the lifecycle error taxonomy onto HTTP statuses. The
// mapping is deterministic so candidate clients can branch on status alone.
func respondTaxonomy(w http.ResponseWriter, err error) {
	var invalid *interview.InvalidTransitionError

	switch {
	case errors.Is(err, interview.ErrNotFound):
		respondError(w, http.StatusNotFound, "interview not found")
	case errors.Is(err, interview.ErrExpired):
		respondJSON(w, http.StatusGone, map[string]string{
			"error":  interview.ErrExpired.Error(),
			"status": string(interview.StatusExpired),
		})
	case errors.Is(err, interview.ErrAlreadyCompleted):
		respondError(w, http.StatusConflict, "%s", interview.ErrAlreadyCompleted.Error())
	case errors.As(err, &invalid):
		respondError(w, http.StatusConflict, "%s", invalid.Error())
	case errors.Is(err, interview.ErrInvalidAction), errors.Is(err, interview.ErrInvalidTurn):
		respondError(w, http.StatusBadRequest, "%s", err.Error())
	case errors.Is(err, interview.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, interview.ErrVoiceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "%s", interview.ErrVoiceUnavailable.Error())
	case errors.Is(err, interview.ErrStorageUnavailable):
		respondError(w, http.StatusServiceUnavailable, "storage unavailable, retry shortly")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
