package bankstream

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType is the kind of a transaction event
type EventType string

const (
	// EventTransaction is published for a completed transfer
	EventTransaction EventType = "transaction"
	// EventTransactionFailed is published for a transfer whose terminal write failed
	EventTransactionFailed EventType = "transaction_failed"
	// EventTransactionPending is published for a transfer attempt that is still in flight
	EventTransactionPending EventType = "transaction_pending"
)

// Provenance metadata attached to every event.
const (
	eventProcessedBy = "bankstream-core"
	eventSource      = "api/v1/transfer"
)

type (
	// TransactionEvent is the immutable snapshot of a transaction published
	// to the stream. The JSON field names are a wire contract with the
	// downstream analysis consumer and must not change.
	TransactionEvent struct {
		EventType     EventType       `json:"eventType"`
		Timestamp     time.Time       `json:"timestamp"`
		TransactionID string          `json:"transactionId"`
		FromAccount   AccountDetails  `json:"fromAccount"`
		ToAccount     AccountDetails  `json:"toAccount"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      Currency        `json:"currency"`
		Description   string          `json:"description"`
		Metadata      EventMetadata   `json:"metadata"`
	}

	// AccountDetails is the per side account snapshot inside an event
	AccountDetails struct {
		ID            string          `json:"id"`
		BalanceBefore decimal.Decimal `json:"balanceBefore"`
		BalanceAfter  decimal.Decimal `json:"balanceAfter"`
		Customer      CustomerDetails `json:"customer"`
	}

	// CustomerDetails is the customer block inside an event. PersonalID and
	// BusinessNumber are populated depending on the customer category.
	CustomerDetails struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Type           string `json:"type"`
		PersonalID     string `json:"personalId,omitempty"`
		BusinessNumber string `json:"businessNumber,omitempty"`
	}

	// EventMetadata records the provenance of an event
	EventMetadata struct {
		ProcessedBy string `json:"processedBy"`
		Source      string `json:"source"`
	}

	// EventSide bundles one side of a transfer for event construction: the
	// account, its owning customer and the balances around the transfer.
	EventSide struct {
		Account       *Account
		Customer      *Customer
		BalanceBefore decimal.Decimal
		BalanceAfter  decimal.Decimal
	}
)

// BuildTransactionEvent builds an event of the given kind from a
// transaction and both transfer sides. It is deterministic: identical
// inputs produce an identical event.
func BuildTransactionEvent(txn *Transaction, eventType EventType, from, to EventSide, currency Currency) *TransactionEvent {
	timestamp := txn.CreatedAt
	if txn.ProcessedAt != nil {
		timestamp = *txn.ProcessedAt
	}

	return &TransactionEvent{
		EventType:     eventType,
		Timestamp:     timestamp,
		TransactionID: txn.ID,
		FromAccount:   buildAccountDetails(from),
		ToAccount:     buildAccountDetails(to),
		Amount:        txn.Amount,
		Currency:      currency,
		Description:   txn.Description,
		Metadata: EventMetadata{
			ProcessedBy: eventProcessedBy,
			Source:      eventSource,
		},
	}
}

// BuildSuccessfulTransferEvent builds the event for a completed transfer
func BuildSuccessfulTransferEvent(txn *Transaction, from, to EventSide, currency Currency) *TransactionEvent {
	return BuildTransactionEvent(txn, EventTransaction, from, to, currency)
}

// BuildFailedTransferEvent builds the event for a failed transfer. Balances
// did not change, so both sides report their before balance on both fields.
func BuildFailedTransferEvent(txn *Transaction, from, to EventSide, currency Currency) *TransactionEvent {
	from.BalanceAfter = from.BalanceBefore
	to.BalanceAfter = to.BalanceBefore

	return BuildTransactionEvent(txn, EventTransactionFailed, from, to, currency)
}

// BuildPendingTransferEvent builds the event for a transfer attempt that
// has not reached a terminal state yet.
func BuildPendingTransferEvent(txn *Transaction, from, to EventSide, currency Currency) *TransactionEvent {
	from.BalanceAfter = from.BalanceBefore
	to.BalanceAfter = to.BalanceBefore

	return BuildTransactionEvent(txn, EventTransactionPending, from, to, currency)
}

func buildAccountDetails(side EventSide) AccountDetails {
	return AccountDetails{
		ID:            side.Account.ID,
		BalanceBefore: side.BalanceBefore,
		BalanceAfter:  side.BalanceAfter,
		Customer:      BuildCustomerDetails(side.Customer),
	}
}
