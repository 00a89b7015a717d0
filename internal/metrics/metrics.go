package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tienlenchat/internal/chat"
)

// Message outcomes for the messages counter.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

type Metrics struct {
	Messages      *prometheus.CounterVec
	Segments      *prometheus.CounterVec
	MentionAlerts prometheus.Counter

	registry *prometheus.Registry
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// Default returns the process-wide Metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = New()
	})
	return metricsInstance
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tienlen_chat_messages_total",
				Help: "Count of chat messages by outcome",
			},
			[]string{"result"},
		),
		Segments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tienlen_chat_segments_total",
				Help: "Count of parsed chat segments by kind",
			},
			[]string{"kind"},
		),
		MentionAlerts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tienlen_chat_mention_alerts_total",
				Help: "Count of mention alerts emitted",
			},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Messages, m.Segments, m.MentionAlerts)
	return m
}

// RecordMessage counts one message outcome. Nil receivers are ignored.
func (m *Metrics) RecordMessage(result string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(result).Inc()
}

// RecordSegments counts segments by kind.
func (m *Metrics) RecordSegments(segments []chat.Segment) {
	if m == nil {
		return
	}
	for _, seg := range segments {
		m.Segments.WithLabelValues(seg.Kind.String()).Inc()
	}
}

// RecordMentionAlerts adds n sent alerts.
func (m *Metrics) RecordMentionAlerts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MentionAlerts.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
