//go:build unit

package amqp_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	libamqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantabank/bankstream"
	bankstreamAMQP "github.com/quantabank/bankstream/extension/amqp"
)

func delivery(transactionID string, eventType bankstream.EventType) libamqp.Delivery {
	d := libamqp.Delivery{
		Body: []byte(fmt.Sprintf(`{"transactionId": %q, "eventType": %q}`, transactionID, eventType)),
	}
	d.Acknowledger = mockAcknowledger{}

	return d
}

func TestNewListener(t *testing.T) {
	logger, _ := getLogger()

	listener, err := bankstreamAMQP.NewListener(nil, time.Millisecond, time.Second, logger)

	assert.Nil(t, listener)
	assert.Equal(t, bankstream.InvalidArgumentError("consume"), err)
}

func TestListener_Listen(t *testing.T) {
	t.Run("Listen, consume and stop", func(t *testing.T) {
		ensure := require.New(t)

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Second)
		defer ctxCancel()

		consume := func() (io.Closer, <-chan libamqp.Delivery, error) {
			ch := make(chan libamqp.Delivery, 2)
			ch <- delivery("TXN1", bankstream.EventTransaction)
			ch <- delivery("TXN2", bankstream.EventTransactionFailed)
			return nil, ch, nil
		}

		handlerCalls := 0
		handler := func(ctx context.Context, event *bankstream.TransactionEvent) error {
			handlerCalls++
			switch handlerCalls {
			case 1:
				ensure.Equal("TXN1", event.TransactionID)
				ensure.Equal(bankstream.EventTransaction, event.EventType)
			case 2:
				ensure.Equal("TXN2", event.TransactionID)
				ensure.Equal(bankstream.EventTransactionFailed, event.EventType)
				ctxCancel()
			default:
				ensure.Fail("only 2 calls to the handler where expected")
			}
			return nil
		}

		logger, loggerHook := getLogger()

		listener, err := bankstreamAMQP.NewListener(consume, time.Millisecond, time.Second, logger)
		ensure.NoError(err)

		err = listener.Listen(ctx, handler)

		ensure.Equal(context.Canceled, err)
		ensure.Equal(2, handlerCalls)
		ensure.Len(loggerHook.Entries, 0)
	})

	t.Run("Listen and reconnect with backoff", func(t *testing.T) {
		ensure := require.New(t)

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Second)
		defer ctxCancel()

		consumeCalls := 0
		consume := func() (io.Closer, <-chan libamqp.Delivery, error) {
			consumeCalls++
			if consumeCalls == 5 {
				ctxCancel()
			}

			return nil, nil, fmt.Errorf("failure %d", consumeCalls)
		}

		logger, loggerHook := getLogger()

		listener, err := bankstreamAMQP.NewListener(consume, time.Millisecond, 6*time.Millisecond, logger)
		ensure.NoError(err)

		var waits []time.Duration
		listener.WithWaitFn(func(d time.Duration) {
			waits = append(waits, d)
		})

		err = listener.Listen(ctx, func(ctx context.Context, event *bankstream.TransactionEvent) error {
			ensure.Fail("the handler should never be called")
			return nil
		})

		ensure.Equal(context.Canceled, err)
		ensure.Equal(5, consumeCalls)

		// the reconnect interval doubles until it hits the maximum
		expectedWaits := []time.Duration{
			time.Millisecond,
			2 * time.Millisecond,
			4 * time.Millisecond,
			6 * time.Millisecond,
			6 * time.Millisecond,
		}
		ensure.Equal(expectedWaits, waits)

		logEntries := loggerHook.AllEntries()
		ensure.Len(logEntries, len(expectedWaits))
		for i, log := range logEntries {
			assert.Equal(t, logrus.ErrorLevel, log.Level)
			assert.Equal(t, "failed to start consuming amqp messages", log.Message)
			assert.Equal(t, fmt.Errorf("failure %d", i+1), log.Data["error"])
			assert.Equal(t, expectedWaits[i].String(), log.Data["reconnect_in"])
		}
	})

	t.Run("Listen, consume and reconnect", func(t *testing.T) {
		ensure := require.New(t)

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Second)
		defer ctxCancel()

		consumeCalls := 0
		consume := func() (io.Closer, <-chan libamqp.Delivery, error) {
			consumeCalls++
			ch := make(chan libamqp.Delivery, 2)
			ch <- delivery("TXN1", bankstream.EventTransaction)
			ch <- delivery("TXN2", bankstream.EventTransaction)
			close(ch)
			return nil, ch, nil
		}

		handlerCalls := 0
		handler := func(ctx context.Context, event *bankstream.TransactionEvent) error {
			handlerCalls++
			switch handlerCalls {
			case 1, 3:
				ensure.Equal("TXN1", event.TransactionID)
			case 2, 4:
				ensure.Equal("TXN2", event.TransactionID)
			default:
				ensure.Fail("only 4 calls to the handler where expected")
			}
			if handlerCalls == 4 {
				ctxCancel()
			}
			return nil
		}

		logger, loggerHook := getLogger()

		listener, err := bankstreamAMQP.NewListener(consume, time.Millisecond, time.Millisecond, logger)
		ensure.NoError(err)

		err = listener.Listen(ctx, handler)

		ensure.Equal(context.Canceled, err)
		ensure.Equal(2, consumeCalls)
		ensure.Equal(4, handlerCalls)
		ensure.Len(loggerHook.Entries, 0)
	})

	t.Run("a malformed delivery is dropped and acknowledged", func(t *testing.T) {
		ensure := require.New(t)

		ctx, ctxCancel := context.WithTimeout(context.Background(), time.Second)
		defer ctxCancel()

		malformed := libamqp.Delivery{Body: []byte(`{not json`)}
		malformed.Acknowledger = mockAcknowledger{}

		consume := func() (io.Closer, <-chan libamqp.Delivery, error) {
			ch := make(chan libamqp.Delivery, 2)
			ch <- malformed
			ch <- delivery("TXN1", bankstream.EventTransaction)
			return nil, ch, nil
		}

		handlerCalls := 0
		handler := func(ctx context.Context, event *bankstream.TransactionEvent) error {
			handlerCalls++
			ensure.Equal("TXN1", event.TransactionID)
			ctxCancel()
			return nil
		}

		logger, loggerHook := getLogger()

		listener, err := bankstreamAMQP.NewListener(consume, time.Millisecond, time.Second, logger)
		ensure.NoError(err)

		err = listener.Listen(ctx, handler)

		ensure.Equal(context.Canceled, err)
		ensure.Equal(1, handlerCalls)
		ensure.Len(loggerHook.Entries, 1)
		ensure.Equal("failed to unmarshal delivery, dropping message", loggerHook.LastEntry().Message)
	})
}
