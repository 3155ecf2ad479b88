// Package inmemory provides an in process, partitioned transaction stream,
// used by tests and single binary deployments.
package inmemory

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/quantabank/bankstream"
)

var (
	// ErrStreamClosed occurs when publishing to a closed stream
	ErrStreamClosed = errors.New("bankstream: stream is closed")
	// ErrAlreadyListening occurs when Listen is called twice
	ErrAlreadyListening = errors.New("bankstream: stream already has a listener")

	// Ensure that we satisfy the stream interfaces
	_ bankstream.Publisher = &Stream{}
	_ bankstream.Listener  = &Stream{}
)

// Stream is a partitioned in process event stream. Events with the same
// transaction id always land on the same partition and are handled in
// publish order; unrelated transactions may be handled in parallel.
type Stream struct {
	sync.Mutex

	partitions []chan *bankstream.TransactionEvent
	logger     bankstream.Logger
	metrics    bankstream.Metrics

	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewStream returns a Stream with the given partition count and per
// partition buffer.
func NewStream(partitionCount, buffer int, logger bankstream.Logger, metrics bankstream.Metrics) (*Stream, error) {
	if partitionCount <= 0 {
		return nil, bankstream.InvalidArgumentError("partitionCount")
	}
	if buffer < 0 {
		return nil, bankstream.InvalidArgumentError("buffer")
	}
	if logger == nil {
		logger = bankstream.NopLogger
	}
	if metrics == nil {
		metrics = bankstream.NopMetrics
	}

	partitions := make([]chan *bankstream.TransactionEvent, partitionCount)
	for i := range partitions {
		partitions[i] = make(chan *bankstream.TransactionEvent, buffer)
	}

	return &Stream{
		partitions: partitions,
		logger:     logger,
		metrics:    metrics,
		done:       make(chan struct{}),
	}, nil
}

// Publish delivers the event to its partition without surfacing failures
func (s *Stream) Publish(ctx context.Context, event *bankstream.TransactionEvent) {
	if err := s.PublishSync(ctx, event); err != nil {
		s.metrics.EventPublishFailed(event.EventType)
		s.logger.Error("failed to publish transaction event", func(entry bankstream.LoggerEntry) {
			entry.Error(err)
			entry.String("transaction_id", event.TransactionID)
		})
	}
}

// PublishSync delivers the event to the partition selected by its
// transaction id and reports failure to the caller.
func (s *Stream) PublishSync(ctx context.Context, event *bankstream.TransactionEvent) error {
	// Ignore nil events since this is not supported
	if event == nil {
		s.logger.Warn("unable to publish nil event, skipping", nil)
		return nil
	}

	select {
	case <-s.done:
		return ErrStreamClosed
	default:
	}

	select {
	case s.partition(event.TransactionID) <- event:
		s.metrics.EventPublished(event.EventType)
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Listen starts one worker per partition and blocks until the context is
// cancelled or the stream is closed. An event being handled when teardown
// starts is finished before its worker stops; events still buffered are
// dropped.
func (s *Stream) Listen(ctx context.Context, handler bankstream.EventHandler) error {
	if handler == nil {
		return bankstream.InvalidArgumentError("handler")
	}

	s.Lock()
	if s.started {
		s.Unlock()
		return ErrAlreadyListening
	}
	s.started = true
	s.Unlock()

	s.wg.Add(len(s.partitions))
	for _, partition := range s.partitions {
		go func(partition <-chan *bankstream.TransactionEvent) {
			defer s.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case <-s.done:
					return
				case event := <-partition:
					if err := handler(ctx, event); err != nil {
						s.logger.Error("failed to handle transaction event", func(entry bankstream.LoggerEntry) {
							entry.Error(err)
							entry.String("transaction_id", event.TransactionID)
						})
					}
				}
			}
		}(partition)
	}

	s.wg.Wait()

	select {
	case <-ctx.Done():
		return context.Canceled
	default:
		return nil
	}
}

// Close stops the stream. Publishing after Close fails with ErrStreamClosed.
func (s *Stream) Close() error {
	s.Lock()
	defer s.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}

	return nil
}

func (s *Stream) partition(key string) chan *bankstream.TransactionEvent {
	h := fnv.New32a()
	h.Write([]byte(key))

	return s.partitions[h.Sum32()%uint32(len(s.partitions))]
}
