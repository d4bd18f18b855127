package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions by outcome: sent, failed, duplicate
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of intake submissions by outcome",
		},
		[]string{"outcome", "source"}, // source: wizard/api/resend
	)

	mailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_mail_send_duration_seconds",
			Help:    "Time spent handing the intake email to the mail transport",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport", "status"},
	)

	wizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_wizard_transitions_total",
			Help: "Wizard stage changes by target stage",
		},
		[]string{"stage"},
	)

	wizardSessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_wizard_sessions_swept_total",
			Help: "Expired wizard sessions removed by the sweeper",
		},
	)

	levelRecommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_level_recommendations_total",
			Help: "Completed level recommendations by level",
		},
		[]string{"level"},
	)
)

// Metric label values for the submission source
const (
	sourceWizard = "wizard"
	sourceAPI    = "api"
	sourceResend = "resend"
)
