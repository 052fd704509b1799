package api

import (
	"time"

	"github.com/google/uuid"

	"voxhire/services/interview"
)

type candidateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     string
	Name      string
	Email     string
	CreatedAt time.Time
}

func (candidateModel) TableName() string { return "candidates" }

func (m *candidateModel) toDomain() *interview.Candidate {
	return &interview.Candidate{ID: m.ID, Name: m.Name, Email: m.Email}
}
