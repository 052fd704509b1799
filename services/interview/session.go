package interview

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an interview session. Sessions only ever
// move forward: invited -> in_progress -> completed, or invited -> expired.
type Status string

const (
	StatusInvited    Status = "invited"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Action names the operations a candidate can request against a session.
type Action string

const (
	ActionStart    Action = "start"
	ActionTurn     Action = "turn"
	ActionComplete Action = "complete"
)

// Turn is a single conversation exchange. Position in the session's turn
// sequence is the source of truth for ordering; At is diagnostic only.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitempty"`
}

// Depth controls how many follow-up probes the voice agent issues per
// competency.
type Depth string

const (
	DepthLight    Depth = "light"
	DepthModerate Depth = "moderate"
	DepthDeep     Depth = "deep"
)

// TemplateConfig holds the per-template interview tuning knobs.
type TemplateConfig struct {
	MaxDurationMinutes int    `json:"max_duration_minutes"`
	Depth              Depth  `json:"depth"`
	VoiceID            string `json:"voice_id"`
	Language           string `json:"language"`
}

// Template is the immutable interview definition a session is bound to.
type Template struct {
	ID             uuid.UUID      `json:"id"`
	OrgID          string         `json:"org_id"`
	JobTitle       string         `json:"job_title"`
	CompanyName    string         `json:"company_name"`
	JobDescription string         `json:"job_description"`
	Competencies   []string       `json:"competencies"`
	MustAsk        []string       `json:"must_ask_questions"`
	Config         TemplateConfig `json:"config"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Candidate identifies the person invited to a session.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Session is one invited candidate's interview. The token is the bearer
// credential candidates present; it maps to at most one session.
type Session struct {
	ID          uuid.UUID      `json:"id"`
	Token       string         `json:"-"`
	TemplateID  uuid.UUID      `json:"template_id"`
	CandidateID *uuid.UUID     `json:"candidate_id,omitempty"`
	Status      Status         `json:"status"`
	InvitedAt   time.Time      `json:"invited_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Turns       []Turn         `json:"turns"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	Transcript  string         `json:"full_transcript,omitempty"`
}

// Resolved bundles a session with its immutable template and candidate
// context, as returned by Engine.Resolve.
type Resolved struct {
	Session   *Session
	Template  *Template
	Candidate *Candidate
}
