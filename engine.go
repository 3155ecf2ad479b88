package bankstream

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// TransferRequest is the transport agnostic shape of a transfer call
	TransferRequest struct {
		FromAccountNumber string          `json:"fromAccountNumber"`
		ToAccountNumber   string          `json:"toAccountNumber"`
		Amount            decimal.Decimal `json:"amount"`
		Currency          Currency        `json:"currency"`
		Description       string          `json:"description,omitempty"`
		ReferenceNumber   string          `json:"referenceNumber,omitempty"`
	}

	// TransferResponse is returned to the transfer caller. It deliberately
	// excludes balances: ledger state is not leaked to the caller.
	TransferResponse struct {
		EventType     EventType         `json:"eventType"`
		Timestamp     time.Time         `json:"timestamp"`
		TransactionID string            `json:"transactionId"`
		FromAccount   AccountSummary    `json:"fromAccount"`
		ToAccount     AccountSummary    `json:"toAccount"`
		Amount        decimal.Decimal   `json:"amount"`
		Currency      Currency          `json:"currency"`
		Description   string            `json:"description"`
		Status        TransactionStatus `json:"status"`
	}

	// AccountSummary is the minimal, balance free account block in a
	// transfer response
	AccountSummary struct {
		ID           string `json:"id"`
		CustomerName string `json:"customerName"`
		CustomerType string `json:"customerType"`
	}

	// Engine orchestrates a transfer: account resolution, validation,
	// balance mutation, transaction persistence and event publication. It
	// owns the PENDING -> COMPLETED | FAILED state machine.
	Engine struct {
		ledger    Ledger
		customers CustomerDirectory
		failures  *FailureRecorder
		publisher Publisher
		logger    Logger
		metrics   Metrics
		now       func() time.Time
	}
)

// NewEngine returns a transfer Engine
func NewEngine(
	ledger Ledger,
	customers CustomerDirectory,
	failures *FailureRecorder,
	publisher Publisher,
	logger Logger,
	metrics Metrics,
) (*Engine, error) {
	switch {
	case ledger == nil:
		return nil, InvalidArgumentError("ledger")
	case customers == nil:
		return nil, InvalidArgumentError("customers")
	case failures == nil:
		return nil, InvalidArgumentError("failures")
	case publisher == nil:
		return nil, InvalidArgumentError("publisher")
	}
	if logger == nil {
		logger = NopLogger
	}
	if metrics == nil {
		metrics = NopMetrics
	}

	return &Engine{
		ledger:    ledger,
		customers: customers,
		failures:  failures,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}, nil
}

// ProcessTransfer moves the requested amount between the two accounts and
// publishes the resulting event. Exactly one terminal transaction state
// results from every attempt that passed validation; PENDING is never
// observable after this call returns.
func (e *Engine) ProcessTransfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	start := e.now()

	e.logger.Info("processing transfer", func(entry LoggerEntry) {
		entry.String("from_account", req.FromAccountNumber)
		entry.String("to_account", req.ToAccountNumber)
		entry.String("amount", req.Amount.String())
		entry.String("currency", string(req.Currency))
	})

	if req.Amount.Sign() <= 0 {
		return nil, InvalidArgumentError("amount")
	}

	utx, err := e.ledger.BeginTransfer(ctx, req.FromAccountNumber, req.ToAccountNumber)
	if err != nil {
		return nil, err
	}

	from, to := utx.From(), utx.To()

	fromCustomer, err := e.customers.CustomerByID(ctx, from.CustomerID)
	if err != nil {
		e.rollback(ctx, utx)
		return nil, err
	}
	toCustomer, err := e.customers.CustomerByID(ctx, to.CustomerID)
	if err != nil {
		e.rollback(ctx, utx)
		return nil, err
	}

	// Balances before the transfer, from the same snapshot the mutation
	// will be applied to.
	fromBefore, toBefore := from.Balance, to.Balance

	if err := ValidateTransfer(from, to, req.Amount, req.Currency); err != nil {
		e.rollback(ctx, utx)
		return nil, err
	}

	// The persisted PENDING row is the durability checkpoint: a transfer
	// attempt exists even if the steps after this one fail.
	txn := NewTransaction(from, to, req.Amount, req.Currency, req.Description, req.ReferenceNumber)
	if err := utx.SaveTransaction(ctx, txn); err != nil {
		e.rollback(ctx, utx)
		return nil, err
	}

	from.Balance = from.Balance.Sub(req.Amount)
	to.Balance = to.Balance.Add(req.Amount)

	if err := txn.MarkCompleted(e.now()); err != nil {
		e.rollback(ctx, utx)
		return nil, err
	}

	if err := utx.Commit(ctx, txn, from, to); err != nil {
		e.rollback(ctx, utx)
		e.failures.Record(ctx, txn,
			EventSide{Account: from, Customer: fromCustomer, BalanceBefore: fromBefore},
			EventSide{Account: to, Customer: toCustomer, BalanceBefore: toBefore},
			req.Currency,
		)

		e.metrics.TransferProcessed(TransactionFailed, e.now().Sub(start))
		e.logger.Error("transfer failed", func(entry LoggerEntry) {
			entry.String("transaction_id", txn.ID)
			entry.Error(err)
		})

		return nil, &TransferError{TransactionID: txn.ID, Cause: err}
	}

	event := BuildSuccessfulTransferEvent(txn,
		EventSide{Account: from, Customer: fromCustomer, BalanceBefore: fromBefore, BalanceAfter: from.Balance},
		EventSide{Account: to, Customer: toCustomer, BalanceBefore: toBefore, BalanceAfter: to.Balance},
		req.Currency,
	)
	e.publisher.Publish(ctx, event)

	e.metrics.TransferProcessed(TransactionCompleted, e.now().Sub(start))
	e.logger.Info("transfer completed", func(entry LoggerEntry) {
		entry.String("transaction_id", txn.ID)
	})

	return buildTransferResponse(txn, from, to, fromCustomer, toCustomer, req.Currency), nil
}

func (e *Engine) rollback(ctx context.Context, utx TransferTx) {
	if err := utx.Rollback(ctx); err != nil {
		e.logger.Error("could not rollback transfer scope", func(entry LoggerEntry) {
			entry.Error(err)
		})
	}
}

func buildTransferResponse(txn *Transaction, from, to *Account, fromCustomer, toCustomer *Customer, currency Currency) *TransferResponse {
	timestamp := txn.CreatedAt
	if txn.ProcessedAt != nil {
		timestamp = *txn.ProcessedAt
	}

	return &TransferResponse{
		EventType:     EventTransaction,
		Timestamp:     timestamp,
		TransactionID: txn.ID,
		FromAccount: AccountSummary{
			ID:           from.ID,
			CustomerName: fromCustomer.Name,
			CustomerType: fromCustomer.Type(),
		},
		ToAccount: AccountSummary{
			ID:           to.ID,
			CustomerName: toCustomer.Name,
			CustomerType: toCustomer.Type(),
		},
		Amount:      txn.Amount,
		Currency:    currency,
		Description: txn.Description,
		Status:      txn.Status,
	}
}
