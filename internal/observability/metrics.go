package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

const namespace = "helpdesk"

// Scan outcomes.
const (
	ScanCompleted = "completed"
	ScanSkipped   = "skipped"
	ScanFailed    = "failed"
)

// Dedup lookup tiers.
const (
	DedupTierMemory  = "memory"
	DedupTierStorage = "storage"
	DedupTierMiss    = "miss"
)

// Metrics holds the prometheus collectors of the service. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	slaScans          *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	pushFailures      prometheus.Counter
	dedupLookups      *prometheus.CounterVec
	dedupPersistFails prometheus.Counter
	activityLogs      *prometheus.CounterVec
	events            *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		slaScans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_scans_total",
			Help:      "SLA scanner runs by outcome.",
		}, []string{"outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Persisted notifications by type.",
		}, []string{"type"}),
		pushFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_push_failures_total",
			Help:      "Real-time pushes that failed after the notification was stored.",
		}),
		dedupLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_lookups_total",
			Help:      "Deduplication lookups by the tier that answered.",
		}, []string{"tier"}),
		dedupPersistFails: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_persist_failures_total",
			Help:      "Best-effort writes of dedup entries to storage that failed.",
		}),
		activityLogs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_logs_written_total",
			Help:      "Activity logs persisted by entity type.",
		}, []string{"entity_type"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "In-process events handled by type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

// RecordScan counts one scanner run.
func (m *Metrics) RecordScan(outcome string) {
	if m == nil {
		return
	}
	m.slaScans.WithLabelValues(outcome).Inc()
}

// RecordNotification counts one stored notification.
func (m *Metrics) RecordNotification(kind domain.NotificationType) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(kind)).Inc()
}

// RecordPushFailure counts one failed real-time push.
func (m *Metrics) RecordPushFailure() {
	if m == nil {
		return
	}
	m.pushFailures.Inc()
}

// RecordDedupLookup counts a lookup answered by tier.
func (m *Metrics) RecordDedupLookup(tier string) {
	if m == nil {
		return
	}
	m.dedupLookups.WithLabelValues(tier).Inc()
}

// RecordDedupPersistFailure counts a failed storage write.
func (m *Metrics) RecordDedupPersistFailure() {
	if m == nil {
		return
	}
	m.dedupPersistFails.Inc()
}

// RecordActivityLog counts one persisted activity log.
func (m *Metrics) RecordActivityLog(entityType domain.EntityType) {
	if m == nil {
		return
	}
	m.activityLogs.WithLabelValues(string(entityType)).Inc()
}

// RecordEvent counts one handled event.
func (m *Metrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome).Inc()
}
