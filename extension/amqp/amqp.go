// Package amqp connects the transaction event stream to an AMQP broker.
package amqp

import (
	"io"

	"github.com/streadway/amqp"
)

// setup returns a connection and channel to be used for the queue setup
func setup(url, queue string) (io.Closer, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, nil, err
	}

	return conn, ch, nil
}

// PublishChannel represents a channel events can be published to
type PublishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}
