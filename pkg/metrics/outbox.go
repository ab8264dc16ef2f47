package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxWorkerMetrics records dispatch outcomes for the outbox worker.
type OutboxWorkerMetrics struct {
	batchDuration *prometheus.HistogramVec
	published     *prometheus.CounterVec
	retried       *prometheus.CounterVec
	deadLettered  *prometheus.CounterVec
	pending       prometheus.Gauge
}

// NewOutboxWorkerMetrics registers the dispatcher metrics on the provided registerer.
func NewOutboxWorkerMetrics(reg prometheus.Registerer) *OutboxWorkerMetrics {
	if reg == nil {
		return &OutboxWorkerMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of outbox dispatch batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published downstream.",
	}, []string{"event_type"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_retried_total",
		Help: "Outbox events rescheduled after a failed publish.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the dead letter table.",
	}, []string{"event_type", "reason"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_events_pending",
		Help: "Outbox events currently awaiting dispatch.",
	})
	reg.MustRegister(batchDuration, published, retried, deadLettered, pending)
	return &OutboxWorkerMetrics{
		batchDuration: batchDuration,
		published:     published,
		retried:       retried,
		deadLettered:  deadLettered,
		pending:       pending,
	}
}

// ObserveBatch records the duration of one dispatch batch.
func (m *OutboxWorkerMetrics) ObserveBatch(worker string, duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// IncPublished increments the published counter for the event type.
func (m *OutboxWorkerMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRetried increments the retry counter for the event type.
func (m *OutboxWorkerMetrics) IncRetried(eventType string) {
	if m == nil || m.retried == nil {
		return
	}
	m.retried.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDeadLettered increments the dead letter counter for the event type and reason.
func (m *OutboxWorkerMetrics) IncDeadLettered(eventType, reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}

// SetPending records the current pending backlog size.
func (m *OutboxWorkerMetrics) SetPending(count int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
