package amqp

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/streadway/amqp"

	"github.com/quantabank/bankstream"
)

// Ensure that we satisfy the bankstream.Publisher interface
var _ bankstream.Publisher = &Publisher{}

// Publisher delivers transaction events to a durable queue. Each message
// carries the transaction id as its message id, so all events of one
// transaction share their ordering key.
type Publisher struct {
	amqpDSN string
	queue   string
	logger  bankstream.Logger
	metrics bankstream.Metrics

	mux        sync.Mutex
	connection io.Closer
	channel    PublishChannel
}

// NewPublisher returns a Publisher. The connection and channel may be nil,
// in which case they are established on the first publish.
func NewPublisher(
	amqpDSN, queue string,
	logger bankstream.Logger,
	metrics bankstream.Metrics,
	connection io.Closer,
	channel PublishChannel,
) (*Publisher, error) {
	if _, err := amqp.ParseURI(amqpDSN); err != nil {
		return nil, bankstream.InvalidArgumentError("amqpDSN")
	}
	if len(queue) == 0 {
		return nil, bankstream.InvalidArgumentError("queue")
	}
	if logger == nil {
		logger = bankstream.NopLogger
	}
	if metrics == nil {
		metrics = bankstream.NopMetrics
	}

	return &Publisher{
		amqpDSN:    amqpDSN,
		queue:      queue,
		logger:     logger,
		metrics:    metrics,
		connection: connection,
		channel:    channel,
	}, nil
}

// Publish delivers the event without blocking the caller on the broker.
// Failures are logged, never returned: a notification outage must not undo
// a transfer that already committed to the ledger.
func (p *Publisher) Publish(ctx context.Context, event *bankstream.TransactionEvent) {
	// Ignore nil events since this is not supported
	if event == nil {
		p.logger.Warn("unable to publish nil event, skipping", nil)
		return
	}

	go func() {
		if err := p.send(event); err != nil {
			p.metrics.EventPublishFailed(event.EventType)
			p.logger.Error("failed to publish transaction event", func(entry bankstream.LoggerEntry) {
				entry.Error(err)
				entry.String("transaction_id", event.TransactionID)
				entry.String("event_type", string(event.EventType))
			})
			return
		}

		p.metrics.EventPublished(event.EventType)
	}()
}

// PublishSync delivers the event and surfaces delivery errors. Intended for
// batch and replay tooling that must know the publish succeeded.
func (p *Publisher) PublishSync(ctx context.Context, event *bankstream.TransactionEvent) error {
	if event == nil {
		p.logger.Warn("unable to publish nil event, skipping", nil)
		return nil
	}

	if err := p.send(event); err != nil {
		p.metrics.EventPublishFailed(event.EventType)
		return err
	}

	p.metrics.EventPublished(event.EventType)

	return nil
}

// Close closes the underlying amqp connection if one was established
func (p *Publisher) Close() error {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.connection == nil {
		return nil
	}

	err := p.connection.Close()
	p.connection = nil
	p.channel = nil

	return err
}

func (p *Publisher) send(event *bankstream.TransactionEvent) error {
	msgBody, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for {
		p.mux.Lock()
		if p.connection == nil {
			p.connection, p.channel, err = setup(p.amqpDSN, p.queue)
			if err != nil {
				p.mux.Unlock()
				return err
			}
		}
		channel := p.channel
		p.mux.Unlock()

		err = channel.Publish("", p.queue, true, false, amqp.Publishing{
			MessageId:   event.TransactionID,
			Type:        string(event.EventType),
			ContentType: "application/json",
			Body:        msgBody,
		})
		if err == amqp.ErrClosed || err == amqp.ErrFrame || err == amqp.ErrUnexpectedFrame {
			p.mux.Lock()
			if closeErr := p.connection.Close(); closeErr != nil {
				p.logger.Error("failed to close amqp connection", func(entry bankstream.LoggerEntry) {
					entry.Error(closeErr)
				})
			}
			p.connection = nil
			p.channel = nil
			p.mux.Unlock()
			continue
		}

		return err
	}
}
