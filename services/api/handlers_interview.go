package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voxhire/pkg/bus"
	"voxhire/services/interview"
)

// interviewView is the candidate-facing read of a session: enough to render
// the interview page, nothing the candidate should not see.
type interviewView struct {
	Status        string                   `json:"status"`
	JobTitle      string                   `json:"job_title"`
	CompanyName   string                   `json:"company_name"`
	CandidateName string                   `json:"candidate_name,omitempty"`
	ExpiresAt     time.Time                `json:"expires_at"`
	Config        interview.TemplateConfig `json:"config"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	Transcript    string                   `json:"full_transcript,omitempty"`
}

func (a *API) handleInterviewRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	token := chi.URLParam(r, "token")
	resolved, err := a.engine.Resolve(ctx, token)
	if err != nil {
		a.respondEngineError(ctx, w, token, err)
		return
	}

	view := interviewView{
		Status:      string(resolved.Session.Status),
		JobTitle:    resolved.Template.JobTitle,
		CompanyName: resolved.Template.CompanyName,
		ExpiresAt:   resolved.Session.ExpiresAt,
		Config:      resolved.Template.Config,
		CompletedAt: resolved.Session.CompletedAt,
	}
	if resolved.Candidate != nil {
		view.CandidateName = resolved.Candidate.Name
	}
	if resolved.Session.Status == interview.StatusCompleted {
		view.Transcript = resolved.Session.Transcript
	}
	respondJSON(w, http.StatusOK, view)
}

type actionRequest struct {
	Action  string         `json:"action"`
	Turn    *turnPayload   `json:"conversationTurn,omitempty"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

type turnPayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// handleInterviewAction is the single mutation endpoint for candidates: a
// tagged union over start, turn, and complete.
func (a *API) handleInterviewAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	token := chi.URLParam(r, "token")

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	switch req.Action {
	case string(interview.ActionStart):
		a.actionStart(ctx, w, token)
	case string(interview.ActionTurn):
		a.actionTurn(ctx, w, token, req.Turn)
	case string(interview.ActionComplete):
		a.actionComplete(ctx, w, token, req.Metrics)
	default:
		sessionActions.WithLabelValues("unknown", "rejected").Inc()
		respondError(w, http.StatusBadRequest, "unknown action %q", req.Action)
	}
}

func (a *API) actionStart(ctx context.Context, w http.ResponseWriter, token string) {
	resolved, err := a.engine.Resolve(ctx, token)
	if err != nil {
		sessionActions.WithLabelValues("start", "rejected").Inc()
		a.respondEngineError(ctx, w, token, err)
		return
	}

	// Build the voice payload before flipping state: a missing transport
	// credential must not strand the session in in_progress.
	payload, err := a.voicePayload(resolved)
	if err != nil {
		sessionActions.WithLabelValues("start", "rejected").Inc()
		a.respondEngineError(ctx, w, token, err)
		return
	}

	sess, err := a.engine.Start(ctx, token)
	if err != nil {
		sessionActions.WithLabelValues("start", "rejected").Inc()
		a.respondEngineError(ctx, w, token, err)
		return
	}

	sessionActions.WithLabelValues("start", "ok").Inc()
	a.publishSession(ctx, bus.SubjectSessionStarted, sess)
	a.log.Info().Stringer("session_id", sess.ID).Msg("interview started")

	respondJSON(w, http.StatusOK, map[string]any{
		"session": sessionToView(sess),
		"voice":   payload,
	})
}

func (a *API) actionTurn(ctx context.Context, w http.ResponseWriter, token string, turn *turnPayload) {
	if turn == nil {
		sessionActions.WithLabelValues("turn", "rejected").Inc()
		respondError(w, http.StatusBadRequest, "conversationTurn payload is required")
		return
	}

	sess, err := a.engine.AppendTurn(ctx, token, interview.Turn{
		Role:    interview.Role(turn.Role),
		Content: turn.Content,
	})
	if err != nil {
		sessionActions.WithLabelValues("turn", "rejected").Inc()
		if errors.Is(err, interview.ErrInvalidTurn) {
			respondError(w, http.StatusBadRequest, "conversationTurn requires a known role and non-empty content")
			return
		}
		a.respondEngineError(ctx, w, token, err)
		return
	}

	sessionActions.WithLabelValues("turn", "ok").Inc()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     sess.Status,
		"turn_count": len(sess.Turns),
	})
}

func (a *API) actionComplete(ctx context.Context, w http.ResponseWriter, token string, metrics map[string]any) {
	sess, err := a.engine.Complete(ctx, token, metrics)
	if err != nil {
		sessionActions.WithLabelValues("complete", "rejected").Inc()
		a.respondEngineError(ctx, w, token, err)
		return
	}

	sessionActions.WithLabelValues("complete", "ok").Inc()
	a.publishSession(ctx, bus.SubjectSessionCompleted, sess)
	go a.archiveTranscript(sess)
	a.log.Info().
		Stringer("session_id", sess.ID).
		Int("turns", len(sess.Turns)).
		Msg("interview completed")

	respondJSON(w, http.StatusOK, sessionToView(sess))
}

// respondEngineError handles the expiry side effects before delegating to the
// taxonomy mapping: the lazy invited -> expired transition already happened in
// the store, so observers downstream get their event here.
func (a *API) respondEngineError(ctx context.Context, w http.ResponseWriter, token string, err error) {
	if errors.Is(err, interview.ErrExpired) {
		sessionsExpired.Inc()
		if a.bus != nil && a.sessions != nil {
			if sess, gerr := a.sessions.GetSessionByToken(ctx, token); gerr == nil && sess.Status == interview.StatusExpired {
				a.publishSession(ctx, bus.SubjectSessionExpired, sess)
			}
		}
	}
	respondTaxonomy(w, err)
}
