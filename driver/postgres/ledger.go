// Package postgres implements the bankstream store interfaces on top of
// PostgreSQL. Row level locks on the account rows are the mutual exclusion
// boundary between concurrent transfers.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/quantabank/bankstream"
)

// ErrTransferDone occurs when a finished TransferTx is used again
var ErrTransferDone = errors.New("bankstream: transfer scope already finished")

var (
	// Ensure that we satisfy the store interfaces
	_ bankstream.Ledger       = &Ledger{}
	_ bankstream.FailureStore = &Ledger{}
)

const (
	accountColumns = `id, account_number, customer_id, currency, status, balance`

	saveAccountQuery = `
		INSERT INTO accounts (id, account_number, customer_id, currency, status, balance)
		VALUES (:id, :account_number, :customer_id, :currency, :status, :balance)
		ON CONFLICT (id) DO UPDATE
		SET account_number = EXCLUDED.account_number,
		    customer_id    = EXCLUDED.customer_id,
		    currency       = EXCLUDED.currency,
		    status         = EXCLUDED.status,
		    balance        = EXCLUDED.balance`

	saveTransactionQuery = `
		INSERT INTO transactions (id, from_account_id, to_account_id, amount, currency, status, description, reference_number, created_at, processed_at)
		VALUES (:id, :from_account_id, :to_account_id, :amount, :currency, :status, :description, :reference_number, :created_at, :processed_at)
		ON CONFLICT (id) DO UPDATE
		SET status       = EXCLUDED.status,
		    processed_at = EXCLUDED.processed_at`

	updateBalanceQuery = `UPDATE accounts SET balance = $1 WHERE id = $2`
)

// Ledger is a PostgreSQL bankstream.Ledger and bankstream.FailureStore
type Ledger struct {
	db     *sqlx.DB
	logger bankstream.Logger
}

// NewLedger returns a postgres.Ledger
func NewLedger(db *sqlx.DB, logger bankstream.Logger) (*Ledger, error) {
	if db == nil {
		return nil, bankstream.InvalidArgumentError("db")
	}
	if logger == nil {
		logger = bankstream.NopLogger
	}

	return &Ledger{db: db, logger: logger}, nil
}

// CreateSchema creates the ledger tables if they do not exist
func (l *Ledger) CreateSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, schema)

	return err
}

// AccountByNumber resolves an account outside of any transfer scope
func (l *Ledger) AccountByNumber(ctx context.Context, number string) (*bankstream.Account, error) {
	var account bankstream.Account
	err := l.db.GetContext(ctx, &account,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
	if err == sql.ErrNoRows {
		return nil, bankstream.NewAccountNotFound(number)
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// ExistsAccountNumber reports whether an account number is taken
func (l *Ledger) ExistsAccountNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := l.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, number)

	return exists, err
}

// SaveAccount inserts or updates an account by identity
func (l *Ledger) SaveAccount(ctx context.Context, account *bankstream.Account) error {
	_, err := l.db.NamedExecContext(ctx, saveAccountQuery, account)

	return err
}

// SaveTransaction persists a transaction record on its own immediately
// committed session. This is the isolated unit of work used by the failure
// recorder: a rollback of an in-flight transfer scope cannot erase it.
func (l *Ledger) SaveTransaction(ctx context.Context, txn *bankstream.Transaction) error {
	_, err := l.db.NamedExecContext(ctx, saveTransactionQuery, txn)

	return err
}

// BeginTransfer opens a database transaction and locks both account rows
// with SELECT ... FOR UPDATE in lexical account number order, so two
// opposing transfers between the same pair cannot deadlock. The returned
// snapshots are read under those locks.
func (l *Ledger) BeginTransfer(ctx context.Context, fromNumber, toNumber string) (bankstream.TransferTx, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	accounts := make(map[string]*bankstream.Account, 2)
	for _, number := range lockOrder(fromNumber, toNumber) {
		var account bankstream.Account
		err := tx.GetContext(ctx, &account,
			`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, number)
		if err == sql.ErrNoRows {
			l.rollback(tx)
			return nil, bankstream.NewAccountNotFound(number)
		}
		if err != nil {
			l.rollback(tx)
			return nil, err
		}

		accounts[number] = &account
	}

	from := accounts[fromNumber]
	to := accounts[toNumber]
	if fromNumber == toNumber {
		// Self transfers lock a single row; the validator rejects them
		// later, both sides just see the same snapshot.
		to = from.Copy()
	}

	return &transferTx{tx: tx, from: from, to: to}, nil
}

func (l *Ledger) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		l.logger.Error("could not rollback transaction", func(entry bankstream.LoggerEntry) {
			entry.Error(err)
		})
	}
}

// lockOrder returns the account numbers in locking order, deduplicated for
// self transfers.
func lockOrder(first, second string) []string {
	if first == second {
		return []string{first}
	}
	if second < first {
		first, second = second, first
	}

	return []string{first, second}
}

type transferTx struct {
	tx   *sqlx.Tx
	from *bankstream.Account
	to   *bankstream.Account
	done bool
}

func (t *transferTx) From() *bankstream.Account {
	return t.from
}

func (t *transferTx) To() *bankstream.Account {
	return t.to
}

// SaveTransaction persists a transaction record inside this scope
func (t *transferTx) SaveTransaction(ctx context.Context, txn *bankstream.Transaction) error {
	if t.done {
		return ErrTransferDone
	}

	_, err := t.tx.NamedExecContext(ctx, saveTransactionQuery, txn)

	return err
}

// Commit writes the terminal transaction state and both account balances
// and commits them as one atomic unit.
func (t *transferTx) Commit(ctx context.Context, txn *bankstream.Transaction, from, to *bankstream.Account) error {
	if t.done {
		return ErrTransferDone
	}

	if _, err := t.tx.NamedExecContext(ctx, saveTransactionQuery, txn); err != nil {
		return err
	}

	for _, account := range []*bankstream.Account{from, to} {
		if _, err := t.tx.ExecContext(ctx, updateBalanceQuery, account.Balance, account.ID); err != nil {
			return err
		}
	}

	t.done = true

	return t.tx.Commit()
}

// Rollback abandons the scope. Safe to call after a failed Commit; the
// database transaction is rolled back at most once.
func (t *transferTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}

	return nil
}
