package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"voxhire/pkg/bus"
	"voxhire/services/interview"
)

type createInviteRequest struct {
	Candidate      *invitedCandidate `json:"candidate,omitempty"`
	ExpiresInHours int               `json:"expires_in_hours,omitempty"`
}

type invitedCandidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type inviteResponse struct {
	SessionID uuid.UUID            `json:"session_id"`
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expires_at"`
	Candidate *interview.Candidate `json:"candidate,omitempty"`
}

// handleCreateInvite issues a new interview session under a template. The
// bearer token is returned exactly once, here; every later read omits it.
func (a *API) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	id, _ := staffFrom(ctx)

	tplID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if _, err := a.getOrgTemplate(ctx, id.OrgID, tplID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "template not found")
			return
		}
		a.log.Error().Err(err).Msg("invite template lookup failed")
		respondError(w, http.StatusInternalServerError, "could not load template")
		return
	}

	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	var candidateID *uuid.UUID
	var candidate *interview.Candidate
	if req.Candidate != nil {
		cand, err := a.findOrCreateCandidate(ctx, id.OrgID, *req.Candidate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "%s", err.Error())
			return
		}
		candidateID = &cand.ID
		candidate = cand.toDomain()
	}

	ttl := a.cfg.InviteTTL
	if req.ExpiresInHours > 0 {
		ttl = time.Duration(req.ExpiresInHours) * time.Hour
	}

	now := time.Now().UTC()
	model := sessionModel{
		ID:          uuid.New(),
		Token:       uuid.NewString(),
		TemplateID:  tplID,
		CandidateID: candidateID,
		Status:      string(interview.StatusInvited),
		InvitedAt:   now,
		ExpiresAt:   now.Add(ttl),
		Turns:       datatypes.JSON("[]"),
	}
	if err := a.store.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		a.log.Error().Err(err).Msg("invite create failed")
		respondError(w, http.StatusInternalServerError, "could not create invite")
		return
	}

	invitesCreated.Inc()
	a.audit(ctx, id, "invite.create", model.ID.String(), map[string]any{
		"template_id": tplID.String(),
	})
	a.publishSession(ctx, bus.SubjectSessionInvited, &interview.Session{
		ID:          model.ID,
		TemplateID:  model.TemplateID,
		CandidateID: model.CandidateID,
		Status:      interview.StatusInvited,
	})

	respondJSON(w, http.StatusCreated, inviteResponse{
		SessionID: model.ID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		Candidate: candidate,
	})
}

// findOrCreateCandidate dedupes candidates by email within the org.
func (a *API) findOrCreateCandidate(ctx context.Context, orgID string, in invitedCandidate) (*candidateModel, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, errors.New("candidate name and email are required")
	}

	var model candidateModel
	err := a.store.ORM.WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, email).
		First(&model).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	model = candidateModel{
		ID:    uuid.New(),
		OrgID: orgID,
		Name:  name,
		Email: email,
	}
	if err := a.store.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}
