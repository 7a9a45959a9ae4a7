package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Directory sync metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrevents_sync_runs_total",
			Help: "Total number of directory sync runs by outcome",
		},
		[]string{"result"},
	)

	IdentitiesSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_sync_identities_total",
			Help: "Total number of identity mappings written by sync runs",
		},
	)

	IdentitySyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_sync_identity_failures_total",
			Help: "Total number of per-employee mapping writes that failed",
		},
	)

	DirectoryUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hrevents_sync_directory_users",
			Help: "Number of eligible Slack users seen by the last sync",
		},
	)

	// Reminder metrics
	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrevents_reminders_sent_total",
			Help: "Total number of reminders delivered by kind",
		},
		[]string{"kind"},
	)

	ReminderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrevents_reminders_failed_total",
			Help: "Total number of reminders that could not be delivered by kind",
		},
		[]string{"kind"},
	)

	// Slack gateway metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_slack_messages_sent_total",
			Help: "Total number of Slack direct messages delivered",
		},
	)

	MessagesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_slack_messages_failed_total",
			Help: "Total number of Slack direct messages that failed",
		},
	)

	// Job queue metrics
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrevents_jobs_enqueued_total",
			Help: "Total number of jobs enqueued by job name",
		},
		[]string{"job"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrevents_job_duration_seconds",
			Help:    "Duration of job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"job"},
	)

	// Lookup cache metrics
	LookupCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_lookup_cache_hits_total",
			Help: "Total number of Slack id lookups served from Redis",
		},
	)

	LookupCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrevents_lookup_cache_misses_total",
			Help: "Total number of Slack id lookups that fell through to PostgreSQL",
		},
	)
)
