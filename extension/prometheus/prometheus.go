package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/quantabank/bankstream"
)

const namespace = "bankstream"

var _ bankstream.Metrics = &Metrics{}

// Metrics is an object for exposing prometheus metrics
type Metrics struct {
	transferCounter  *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	eventCounter     *prometheus.CounterVec
	anomalyCounter   *prometheus.CounterVec
}

// NewMetrics instantiate and return an object of Metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// transferCounter is used to expose 'transfer_count' metric
		transferCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_count",
				Help:      "counter for number of processed transfers",
			},
			[]string{"status"},
		),
		// transferDuration is used to expose 'transfer_duration_seconds' metrics
		transferDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "histogram of transfer processing latencies",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"status"},
		),
		// eventCounter is used to expose 'event_publish_count' metric
		eventCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_count",
				Help:      "counter for number of published transaction events",
			},
			[]string{"event_type", "success"},
		),
		// anomalyCounter is used to expose 'anomaly_count' metric
		anomalyCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "anomaly_count",
				Help:      "counter for number of flagged transaction anomalies",
			},
			[]string{"rule"},
		),
	}
}

// RegisterMetrics registers the metrics with the given prometheus registry
func (m *Metrics) RegisterMetrics(registry *prometheus.Registry) error {
	err := registry.Register(m.transferCounter)
	if err != nil {
		return err
	}

	err = registry.Register(m.transferDuration)
	if err != nil {
		return err
	}

	err = registry.Register(m.eventCounter)
	if err != nil {
		return err
	}

	return registry.Register(m.anomalyCounter)
}

// TransferProcessed counts processed transfers and observes their duration
func (m *Metrics) TransferProcessed(status bankstream.TransactionStatus, duration time.Duration) {
	labels := prometheus.Labels{"status": string(status)}
	m.transferCounter.With(labels).Inc()
	m.transferDuration.With(labels).Observe(duration.Seconds())
}

// EventPublished counts successfully published transaction events
func (m *Metrics) EventPublished(eventType bankstream.EventType) {
	m.eventCounter.With(prometheus.Labels{"event_type": string(eventType), "success": "true"}).Inc()
}

// EventPublishFailed counts transaction events that could not be published
func (m *Metrics) EventPublishFailed(eventType bankstream.EventType) {
	m.eventCounter.With(prometheus.Labels{"event_type": string(eventType), "success": "false"}).Inc()
}

// AnomalyFlagged counts anomalies per rule
func (m *Metrics) AnomalyFlagged(rule string) {
	m.anomalyCounter.With(prometheus.Labels{"rule": rule}).Inc()
}
