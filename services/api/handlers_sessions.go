package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// handleGetSession is the staff read of a session by id, org-scoped through
// the owning template. Out-of-org sessions are indistinguishable from absent.
func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	id, _ := staffFrom(ctx)

	sessID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var model sessionModel
	err = a.store.ORM.WithContext(ctx).
		Joins("JOIN interview_templates ON interview_templates.id = interview_sessions.template_id").
		Where("interview_sessions.id = ? AND interview_templates.org_id = ?", sessID, id.OrgID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		a.log.Error().Err(err).Msg("session get failed")
		respondError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	sess, err := a.sessions.getSessionByID(ctx, model.ID)
	if err != nil {
		respondTaxonomy(w, err)
		return
	}

	view := sessionToView(sess)
	view.TranscriptArchiveURL = a.transcriptArchiveURL(ctx, sess)
	respondJSON(w, http.StatusOK, view)
}
