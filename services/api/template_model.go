package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"voxhire/services/interview"
)

type templateModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID          string
	JobTitle       string
	CompanyName    string
	JobDescription string
	Competencies   datatypes.JSON
	MustAsk        datatypes.JSON
	Config         datatypes.JSONMap
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (templateModel) TableName() string { return "interview_templates" }

func (m *templateModel) toDomain() *interview.Template {
	return &interview.Template{
		ID:             m.ID,
		OrgID:          m.OrgID,
		JobTitle:       m.JobTitle,
		CompanyName:    m.CompanyName,
		JobDescription: m.JobDescription,
		Competencies:   stringsFromJSON(m.Competencies),
		MustAsk:        stringsFromJSON(m.MustAsk),
		Config:         configFromJSONMap(m.Config),
		CreatedAt:      m.CreatedAt,
	}
}

func configToJSONMap(cfg interview.TemplateConfig) datatypes.JSONMap {
	return datatypes.JSONMap{
		"max_duration_minutes": cfg.MaxDurationMinutes,
		"depth":                string(cfg.Depth),
		"voice_id":             cfg.VoiceID,
		"language":             cfg.Language,
	}
}

func configFromJSONMap(m datatypes.JSONMap) interview.TemplateConfig {
	var cfg interview.TemplateConfig
	if m == nil {
		return cfg
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(raw, &cfg)
	return cfg
}
