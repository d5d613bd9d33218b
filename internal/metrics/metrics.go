package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts finished pipeline runs by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact submissions by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_rate_limit_rejections_total",
			Help: "Total number of submissions rejected by the rate limiter",
		},
	)

	// ExternalCallDuration tracks calls to the LLM and mail providers
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_external_call_duration_seconds",
			Help:    "Duration of external calls made while processing a submission",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"stage", "result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_notifications_total",
			Help: "Total number of notification emails by recipient and result",
		},
		[]string{"recipient", "result"},
	)

	AuditLogDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_audit_log_dropped_total",
			Help: "Total number of audit log entries dropped because the buffer was full or the sink was stopped",
		},
	)
)
