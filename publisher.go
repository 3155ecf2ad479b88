package bankstream

import "context"

type (
	// Publisher delivers transaction events to the stream, keyed by the
	// event's transaction id so all events of one transaction preserve
	// their order.
	Publisher interface {
		// Publish is fire and forget: it returns before delivery is
		// confirmed and implementations log failures instead of returning
		// them. A notification outage must never undo a transfer that
		// already committed.
		Publish(ctx context.Context, event *TransactionEvent)

		// PublishSync delivers the event and reports delivery failure to
		// the caller. Intended for batch and replay tooling that must know
		// the publish succeeded before proceeding.
		PublishSync(ctx context.Context, event *TransactionEvent) error
	}

	// EventHandler processes a single delivered event
	EventHandler func(ctx context.Context, event *TransactionEvent) error

	// Listener is a long lived subscription to the transaction stream.
	// Listen blocks, delivering events to the handler one at a time per
	// partition, until the context is cancelled; the in-flight event is
	// finished before teardown completes.
	Listener interface {
		Listen(ctx context.Context, handler EventHandler) error
	}
)
