package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain events: notifications, realtime delivery,
// state machine transitions, search and background jobs.
type ApplicationMetrics struct {
	NotificationsCreated    *prometheus.CounterVec
	NotificationsSkipped    *prometheus.CounterVec
	NotificationsDispatched *prometheus.CounterVec
	NotificationEmails      *prometheus.CounterVec

	RealtimeClients    *prometheus.GaugeVec
	RealtimeEventsSent *prometheus.CounterVec
	RealtimeDropped    prometheus.Counter

	Transitions *prometheus.CounterVec

	SearchRequests *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec

	JobRuns         *prometheus.CounterVec
	JobRowsAffected *prometheus.CounterVec
}

func newApplicationMetrics() *ApplicationMetrics {
	return &ApplicationMetrics{
		NotificationsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_created_total",
				Help: "Notifications persisted, by category",
			},
			[]string{"category"},
		),
		NotificationsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_skipped_total",
				Help: "Notifications dropped because the recipient disabled the category",
			},
			[]string{"category"},
		),
		NotificationsDispatched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dispatched_total",
				Help: "Realtime events delivered to connected clients, by event",
			},
			[]string{"event"},
		),
		NotificationEmails: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_emails_total",
				Help: "Notification emails sent via SES",
			},
			[]string{"status"},
		),

		RealtimeClients: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "realtime_clients",
				Help: "Connected realtime clients by transport",
			},
			[]string{"transport"},
		),
		RealtimeEventsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_events_sent_total",
				Help: "Realtime frames written, by event",
			},
			[]string{"event"},
		),
		RealtimeDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "realtime_clients_dropped_total",
				Help: "Realtime clients removed after a failed or blocked send",
			},
		),

		Transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "state_transitions_total",
				Help: "Status transitions of affiliations, applications and join requests",
			},
			[]string{"entity", "from", "to"},
		),

		SearchRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_requests_total",
				Help: "Profile searches, by backend and kind",
			},
			[]string{"backend", "kind"},
		),
		SearchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_duration_seconds",
				Help:    "Profile search latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"backend"},
		),

		JobRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_runs_total",
				Help: "Background job executions",
			},
			[]string{"job", "status"},
		),
		JobRowsAffected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_rows_affected_total",
				Help: "Rows changed by background jobs",
			},
			[]string{"job"},
		),
	}
}

// RecordTransition counts a status change of a workflow entity
func RecordTransition(entity, from, to string) {
	Get().App.Transitions.WithLabelValues(entity, from, to).Inc()
}
