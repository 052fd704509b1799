package api

import (
	"context"
	"time"

	"voxhire/pkg/bus"
	"voxhire/services/interview"
)

// publishSession emits a lifecycle event. Events are advisory; a publish
// failure is logged and the request proceeds.
func (a *API) publishSession(ctx context.Context, subject string, sess *interview.Session) {
	if a.bus == nil {
		return
	}

	evt := bus.SessionEvent{
		SessionID:   sess.ID,
		TemplateID:  sess.TemplateID,
		CandidateID: sess.CandidateID,
		Status:      string(sess.Status),
		At:          time.Now().UTC(),
		Metrics:     sess.Metrics,
		Transcript:  sess.Transcript,
	}
	if err := a.bus.PublishSession(ctx, subject, evt); err != nil {
		a.log.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}
