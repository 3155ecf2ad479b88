package bankstream

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a transaction. PENDING is the only
// non terminal state; a transaction leaves it at most once and never
// returns to it.
type TransactionStatus string

const (
	// TransactionPending marks a transfer attempt whose outcome is not yet known
	TransactionPending TransactionStatus = "PENDING"
	// TransactionCompleted marks a durably applied transfer
	TransactionCompleted TransactionStatus = "COMPLETED"
	// TransactionFailed marks a transfer whose terminal write was rejected
	TransactionFailed TransactionStatus = "FAILED"
)

// ErrTransactionTerminal occurs when a state transition is requested on a
// transaction that already reached a terminal state
var ErrTransactionTerminal = errors.New("bankstream: transaction already reached a terminal state")

// Transaction is the single source of truth for "did this transfer happen".
// It is created PENDING before any balance mutation is attempted.
type Transaction struct {
	ID              string            `db:"id"`
	FromAccountID   string            `db:"from_account_id"`
	ToAccountID     string            `db:"to_account_id"`
	Amount          decimal.Decimal   `db:"amount"`
	Currency        Currency          `db:"currency"`
	Status          TransactionStatus `db:"status"`
	Description     string            `db:"description"`
	ReferenceNumber string            `db:"reference_number"`
	CreatedAt       time.Time         `db:"created_at"`
	ProcessedAt     *time.Time        `db:"processed_at"`
}

// NewTransaction returns a PENDING transaction for a transfer between the
// two accounts.
func NewTransaction(from, to *Account, amount decimal.Decimal, currency Currency, description, reference string) *Transaction {
	return &Transaction{
		ID:              GenerateTransactionID(),
		FromAccountID:   from.ID,
		ToAccountID:     to.ID,
		Amount:          amount,
		Currency:        currency,
		Status:          TransactionPending,
		Description:     description,
		ReferenceNumber: reference,
		CreatedAt:       time.Now().UTC(),
	}
}

// GenerateTransactionID returns a collision resistant transaction
// identifier with a time ordered prefix. Identifiers are informative about
// creation order within a process but are not sortable by wall clock across
// processes.
func GenerateTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]

	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix)
}

// Terminal returns true once the transaction left the PENDING state
func (t *Transaction) Terminal() bool {
	return t.Status != TransactionPending
}

// MarkCompleted moves the transaction out of PENDING and records the
// processing time. Only valid from PENDING.
func (t *Transaction) MarkCompleted(at time.Time) error {
	if t.Status != TransactionPending {
		return ErrTransactionTerminal
	}

	t.Status = TransactionCompleted
	t.ProcessedAt = &at

	return nil
}

// MarkFailed records the FAILED terminal state. A transaction marked
// COMPLETED whose terminal write was rejected by the store is demoted to
// FAILED through this path; FAILED itself is final.
func (t *Transaction) MarkFailed(at time.Time) error {
	if t.Status == TransactionFailed {
		return ErrTransactionTerminal
	}

	t.Status = TransactionFailed
	t.ProcessedAt = &at

	return nil
}

// Copy returns an independent copy of the transaction
func (t *Transaction) Copy() *Transaction {
	copied := *t
	if t.ProcessedAt != nil {
		processedAt := *t.ProcessedAt
		copied.ProcessedAt = &processedAt
	}

	return &copied
}
