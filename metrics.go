package bankstream

import "time"

type (
	// Metrics a structured metrics interface
	Metrics interface {
		TransferProcessed(status TransactionStatus, duration time.Duration)
		EventPublished(eventType EventType)
		EventPublishFailed(eventType EventType)
		AnomalyFlagged(rule string)
	}
)

// NopMetrics is a no-op Metrics
var NopMetrics Metrics = &nopMetrics{}

type nopMetrics struct{}

func (nopMetrics) TransferProcessed(TransactionStatus, time.Duration) {}

func (nopMetrics) EventPublished(EventType) {}

func (nopMetrics) EventPublishFailed(EventType) {}

func (nopMetrics) AnomalyFlagged(string) {}
