package bankstream

import (
	"context"
	"time"
)

// FailureRecorder persists a FAILED transaction outcome through a store
// scope isolated from the failing transfer's unit of work, so evidence of
// the failure survives that unit's rollback.
type FailureRecorder struct {
	store     FailureStore
	publisher Publisher
	logger    Logger
	now       func() time.Time
}

// NewFailureRecorder returns a FailureRecorder
func NewFailureRecorder(store FailureStore, publisher Publisher, logger Logger) (*FailureRecorder, error) {
	switch {
	case store == nil:
		return nil, InvalidArgumentError("store")
	case publisher == nil:
		return nil, InvalidArgumentError("publisher")
	}
	if logger == nil {
		logger = NopLogger
	}

	return &FailureRecorder{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Record marks the transaction FAILED, persists it and publishes the failed
// event. It never returns an error: the caller is already propagating the
// failure that matters and a secondary recording error must not mask it.
func (r *FailureRecorder) Record(ctx context.Context, txn *Transaction, from, to EventSide, currency Currency) {
	if err := txn.MarkFailed(r.now()); err != nil {
		r.logger.Error("cannot mark transaction as failed", func(entry LoggerEntry) {
			entry.String("transaction_id", txn.ID)
			entry.Error(err)
		})
		return
	}

	if err := r.store.SaveTransaction(ctx, txn); err != nil {
		r.logger.Error("failed to record transaction failure", func(entry LoggerEntry) {
			entry.String("transaction_id", txn.ID)
			entry.Error(err)
		})
		return
	}

	r.publisher.Publish(ctx, BuildFailedTransferEvent(txn, from, to, currency))

	r.logger.Info("failed transaction recorded", func(entry LoggerEntry) {
		entry.String("transaction_id", txn.ID)
	})
}
