package api

import (
	"fmt"

	"voxhire/services/interview"
)

// VoiceAgentPayload is everything the browser voice widget needs to open the
// agent session: the transport credential, the synthesized system prompt, and
// the realtime tuning knobs.
type VoiceAgentPayload struct {
	APIKey       string           `json:"apiKey"`
	Instructions string           `json:"instructions"`
	Config       VoiceAgentConfig `json:"config"`
}

type VoiceAgentConfig struct {
	Voice          string                `json:"voice"`
	ThinkModel     string                `json:"thinkModel"`
	ThinkProvider  string                `json:"thinkProvider"`
	MaxDuration    int                   `json:"maxDuration"`
	Language       string                `json:"language"`
	Greeting       string                `json:"greeting"`
	PacingSchedule []interview.Directive `json:"pacingSchedule"`
}

// voicePayload builds the agent payload for a freshly started session. The
// credential check happens before the state transition in the handler, so a
// misconfigured deployment never strands sessions in in_progress.
func (a *API) voicePayload(resolved *interview.Resolved) (VoiceAgentPayload, error) {
	if a.cfg.VoiceAPIKey == "" {
		return VoiceAgentPayload{}, interview.ErrVoiceUnavailable
	}

	candidateName := ""
	if resolved.Candidate != nil {
		candidateName = resolved.Candidate.Name
	}
	instructions := interview.Synthesize(resolved.Template, candidateName)

	greeting := fmt.Sprintf("Hello! Thanks for joining this interview for the %s role at %s. Ready to get started?",
		resolved.Template.JobTitle, resolved.Template.CompanyName)
	if candidateName != "" {
		greeting = fmt.Sprintf("Hello %s! Thanks for joining this interview for the %s role at %s. Ready to get started?",
			candidateName, resolved.Template.JobTitle, resolved.Template.CompanyName)
	}

	return VoiceAgentPayload{
		APIKey:       a.cfg.VoiceAPIKey,
		Instructions: instructions.Prompt,
		Config: VoiceAgentConfig{
			Voice:          resolved.Template.Config.VoiceID,
			ThinkModel:     a.cfg.VoiceThinkModel,
			ThinkProvider:  a.cfg.VoiceThinkProvider,
			MaxDuration:    resolved.Template.Config.MaxDurationMinutes,
			Language:       resolved.Template.Config.Language,
			Greeting:       greeting,
			PacingSchedule: instructions.Schedule,
		},
	}, nil
}
