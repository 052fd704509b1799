package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxhire_session_actions_total",
		Help: "Candidate session actions by action name and outcome.",
	}, []string{"action", "outcome"})

	sessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxhire_sessions_expired_total",
		Help: "Requests rejected because the interview link expired.",
	})

	invitesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxhire_invites_created_total",
		Help: "Interview invites issued by staff.",
	})

	transcriptsArchived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxhire_transcripts_archived_total",
		Help: "Transcript archive uploads by outcome.",
	}, []string{"outcome"})
)
