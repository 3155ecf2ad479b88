//go:build unit

package amqp_test

import (
	"sync"

	"github.com/streadway/amqp"
)

type mockConnection struct {
	closeCalls int
}

func (cn *mockConnection) Close() error {
	cn.closeCalls++
	return nil
}

type mockChannel struct {
	mu        sync.Mutex
	err       error
	published []amqp.Publishing
}

func (ch *mockChannel) Publish(
	exchange string,
	queue string,
	mandatory bool,
	immediate bool,
	msg amqp.Publishing,
) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.err != nil {
		return ch.err
	}

	ch.published = append(ch.published, msg)
	return nil
}

func (ch *mockChannel) messages() []amqp.Publishing {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	messages := make([]amqp.Publishing, len(ch.published))
	copy(messages, ch.published)

	return messages
}

type mockAcknowledger struct {
}

func (a mockAcknowledger) Ack(tag uint64, multiple bool) error {
	return nil
}

func (a mockAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	return nil
}

func (a mockAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}
