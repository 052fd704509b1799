package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"voxhire/services/interview"
)

type createTemplateRequest struct {
	JobTitle       string                 `json:"job_title"`
	CompanyName    string                 `json:"company_name"`
	JobDescription string                 `json:"job_description"`
	Competencies   []string               `json:"competencies"`
	MustAsk        []string               `json:"must_ask_questions"`
	Config         *templateConfigRequest `json:"config,omitempty"`
}

// templateConfigRequest uses pointers so "absent" and "zero" are
// distinguishable: absent fields take the deployment defaults.
type templateConfigRequest struct {
	MaxDurationMinutes *int    `json:"max_duration_minutes,omitempty"`
	Depth              *string `json:"depth,omitempty"`
	VoiceID            *string `json:"voice_id,omitempty"`
	Language           *string `json:"language,omitempty"`
}

func (req createTemplateRequest) validate() error {
	if strings.TrimSpace(req.JobTitle) == "" {
		return errors.New("job_title is required")
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return errors.New("company_name is required")
	}
	if len(req.Competencies) == 0 {
		return errors.New("at least one competency is required")
	}
	return nil
}

// mergeConfig applies the request's overrides on top of the defaults object.
func mergeConfig(defaults interview.TemplateConfig, req *templateConfigRequest) interview.TemplateConfig {
	cfg := defaults
	if req == nil {
		return cfg
	}
	if req.MaxDurationMinutes != nil && *req.MaxDurationMinutes > 0 {
		cfg.MaxDurationMinutes = *req.MaxDurationMinutes
	}
	if req.Depth != nil {
		cfg.Depth = interview.Depth(*req.Depth)
	}
	if req.VoiceID != nil {
		cfg.VoiceID = *req.VoiceID
	}
	if req.Language != nil {
		cfg.Language = *req.Language
	}
	return cfg
}

func (a *API) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	id, _ := staffFrom(ctx)

	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, "%s", err.Error())
		return
	}

	cfg := mergeConfig(a.cfg.templateDefaults(), req.Config)
	model := templateModel{
		ID:             uuid.New(),
		OrgID:          id.OrgID,
		JobTitle:       strings.TrimSpace(req.JobTitle),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		JobDescription: req.JobDescription,
		Competencies:   toJSONStrings(req.Competencies),
		MustAsk:        toJSONStrings(req.MustAsk),
		Config:         configToJSONMap(cfg),
	}

	if err := a.store.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		a.log.Error().Err(err).Msg("template create failed")
		respondError(w, http.StatusInternalServerError, "could not create template")
		return
	}

	a.audit(ctx, id, "template.create", model.ID.String(), map[string]any{
		"job_title": model.JobTitle,
	})
	respondJSON(w, http.StatusCreated, model.toDomain())
}

func (a *API) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	id, _ := staffFrom(ctx)

	out, err := a.sessions.ListTemplates(ctx, id.OrgID)
	if err != nil {
		a.log.Error().Err(err).Msg("template list failed")
		respondError(w, http.StatusInternalServerError, "could not list templates")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (a *API) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	id, _ := staffFrom(ctx)

	tplID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	model, err := a.getOrgTemplate(ctx, id.OrgID, tplID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "template not found")
			return
		}
		a.log.Error().Err(err).Msg("template get failed")
		respondError(w, http.StatusInternalServerError, "could not load template")
		return
	}
	respondJSON(w, http.StatusOK, model.toDomain())
}

func (a *API) getOrgTemplate(ctx context.Context, orgID string, tplID uuid.UUID) (*templateModel, error) {
	var model templateModel
	err := a.store.ORM.WithContext(ctx).
		Where("id = ? AND org_id = ?", tplID, orgID).
		First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}
