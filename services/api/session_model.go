package api

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"voxhire/services/interview"
)

type sessionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token          string
	TemplateID     uuid.UUID
	CandidateID    *uuid.UUID
	Status         string
	InvitedAt      time.Time
	ExpiresAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Turns          datatypes.JSON
	Metrics        datatypes.JSONMap
	FullTranscript string
}

func (sessionModel) TableName() string { return "interview_sessions" }

// sessionView is the staff-facing projection of a session. The bearer token
// is deliberately absent: once issued it is only ever returned by the invite
// endpoint.
type sessionView struct {
	ID          uuid.UUID        `json:"id"`
	TemplateID  uuid.UUID        `json:"template_id"`
	CandidateID *uuid.UUID       `json:"candidate_id,omitempty"`
	Status      string           `json:"status"`
	InvitedAt   time.Time        `json:"invited_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Turns       []interview.Turn `json:"turns"`
	Metrics     map[string]any   `json:"metrics,omitempty"`
	Transcript  string           `json:"full_transcript,omitempty"`

	// TranscriptArchiveURL is a presigned object-store link, set only on the
	// staff read when archiving is configured.
	TranscriptArchiveURL string `json:"transcript_archive_url,omitempty"`
}

func sessionToView(s *interview.Session) sessionView {
	turns := s.Turns
	if turns == nil {
		turns = []interview.Turn{}
	}
	return sessionView{
		ID:          s.ID,
		TemplateID:  s.TemplateID,
		CandidateID: s.CandidateID,
		Status:      string(s.Status),
		InvitedAt:   s.InvitedAt,
		ExpiresAt:   s.ExpiresAt,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Turns:       turns,
		Metrics:     s.Metrics,
		Transcript:  s.Transcript,
	}
}
