package amqp

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/streadway/amqp"

	"github.com/quantabank/bankstream"
)

// Ensure Listener implements bankstream.Listener
var _ bankstream.Listener = &Listener{}

type (
	// Consume returns a channel of amqp.Delivery's and a related closer or an error
	Consume func() (io.Closer, <-chan amqp.Delivery, error)

	// Listener consumes transaction events from a queue
	Listener struct {
		consume              Consume
		minReconnectInterval time.Duration
		maxReconnectInterval time.Duration
		logger               bankstream.Logger
		waitFn               func(time.Duration)
	}
)

// NewQueueConsume returns a Consume that reads the given durable queue one
// unacknowledged message at a time, preserving delivery order.
func NewQueueConsume(amqpDSN, queue string) (Consume, error) {
	if _, err := amqp.ParseURI(amqpDSN); err != nil {
		return nil, bankstream.InvalidArgumentError("amqpDSN")
	}
	if len(queue) == 0 {
		return nil, bankstream.InvalidArgumentError("queue")
	}

	return func() (io.Closer, <-chan amqp.Delivery, error) {
		conn, ch, err := setup(amqpDSN, queue)
		if err != nil {
			return nil, nil, err
		}

		// Indicate we only want 1 message to acknowledge at a time.
		if err := ch.Qos(1, 0, false); err != nil {
			return nil, nil, err
		}

		deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)

		return conn, deliveries, err
	}, nil
}

// NewListener returns a new Listener
func NewListener(
	consume Consume,
	minReconnectInterval time.Duration,
	maxReconnectInterval time.Duration,
	logger bankstream.Logger,
) (*Listener, error) {
	if consume == nil {
		return nil, bankstream.InvalidArgumentError("consume")
	}
	if logger == nil {
		logger = bankstream.NopLogger
	}

	return &Listener{
		consume:              consume,
		minReconnectInterval: minReconnectInterval,
		maxReconnectInterval: maxReconnectInterval,
		logger:               logger,
		waitFn:               time.Sleep,
	}, nil
}

// WithWaitFn replaces the default function called to wait (time.Sleep)
func (l *Listener) WithWaitFn(fn func(time.Duration)) {
	l.waitFn = fn
}

// Listen receives messages from the queue, transforms them into
// transaction events and calls the handler. Connection failures are
// retried with exponential backoff.
func (l *Listener) Listen(ctx context.Context, handler bankstream.EventHandler) error {
	if handler == nil {
		return bankstream.InvalidArgumentError("handler")
	}

	var nextReconnect time.Time
	reconnectInterval := l.minReconnectInterval
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		conn, deliveries, err := l.consume()
		if err != nil {
			l.logger.Error("failed to start consuming amqp messages", func(entry bankstream.LoggerEntry) {
				entry.Error(err)
				entry.String("reconnect_in", reconnectInterval.String())
			})

			l.waitFn(reconnectInterval)
			reconnectInterval *= 2
			if reconnectInterval > l.maxReconnectInterval {
				reconnectInterval = l.maxReconnectInterval
			}
			continue
		}
		reconnectInterval = l.minReconnectInterval
		nextReconnect = time.Now().Add(reconnectInterval)

		l.consumeMessages(ctx, conn, deliveries, handler)

		select {
		case <-ctx.Done():
			return context.Canceled
		default:
			l.waitFn(time.Until(nextReconnect))
		}
	}
}

func (l *Listener) consumeMessages(ctx context.Context, conn io.Closer, deliveries <-chan amqp.Delivery, handler bankstream.EventHandler) {
	defer func() {
		if conn == nil {
			return
		}

		if err := conn.Close(); err != nil {
			l.logger.Error("failed to close amqp connection", func(entry bankstream.LoggerEntry) {
				entry.Error(err)
			})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}

			event := &bankstream.TransactionEvent{}
			if err := json.Unmarshal(msg.Body, event); err != nil {
				l.logger.Error("failed to unmarshal delivery, dropping message", func(entry bankstream.LoggerEntry) {
					entry.Error(err)
				})

				if err := msg.Ack(false); err != nil {
					l.logger.Error("failed to acknowledge dropped delivery", func(entry bankstream.LoggerEntry) {
						entry.Error(err)
					})
				}
				continue
			}

			if err := handler(ctx, event); err != nil {
				l.logger.Error("failed to handle transaction event", func(entry bankstream.LoggerEntry) {
					entry.Error(err)
					entry.String("transaction_id", event.TransactionID)
				})
			}

			// The event is acknowledged only after the handler finished
			// with it; a crash mid event re-delivers it (at least once).
			if err := msg.Ack(false); err != nil {
				l.logger.Error("failed to acknowledge event delivery", func(entry bankstream.LoggerEntry) {
					entry.Error(err)
					entry.String("transaction_id", event.TransactionID)
				})
			}
		}
	}
}
