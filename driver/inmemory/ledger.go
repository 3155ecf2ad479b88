// Package inmemory provides map backed implementations of the bankstream
// store interfaces, intended for tests and local development.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/quantabank/bankstream"
)

var (
	// ErrAccountExists occurs when an account is added with a taken account number
	ErrAccountExists = errors.New("bankstream: account number already exists")
	// ErrTransferDone occurs when a finished TransferTx is used again
	ErrTransferDone = errors.New("bankstream: transfer scope already finished")

	// Ensure that we satisfy the store interfaces
	_ bankstream.Ledger       = &Ledger{}
	_ bankstream.FailureStore = &Ledger{}
)

// Ledger is an in memory account and transaction store. A single mutex
// serializes all transfer scopes, which trivially satisfies the consistent
// lock order requirement; it does not attempt the per pair parallelism a
// production store provides.
type Ledger struct {
	mu sync.Mutex

	logger       bankstream.Logger
	accounts     map[string]*bankstream.Account // keyed by account number
	transactions map[string]*bankstream.Transaction

	failCommit error
}

// NewLedger returns an empty in memory Ledger
func NewLedger(logger bankstream.Logger) *Ledger {
	if logger == nil {
		logger = bankstream.NopLogger
	}

	return &Ledger{
		logger:       logger,
		accounts:     map[string]*bankstream.Account{},
		transactions: map[string]*bankstream.Transaction{},
	}
}

// AddAccount seeds the ledger with an account
func (l *Ledger) AddAccount(account *bankstream.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.accounts[account.AccountNumber]; taken {
		return ErrAccountExists
	}

	l.accounts[account.AccountNumber] = account.Copy()

	return nil
}

// AccountByNumber returns a copy of the account with the given number
func (l *Ledger) AccountByNumber(ctx context.Context, number string) (*bankstream.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, found := l.accounts[number]
	if !found {
		return nil, bankstream.NewAccountNotFound(number)
	}

	return account.Copy(), nil
}

// ExistsAccountNumber reports whether an account number is taken
func (l *Ledger) ExistsAccountNumber(ctx context.Context, number string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, found := l.accounts[number]

	return found, nil
}

// SaveAccount inserts or updates an account by identity
func (l *Ledger) SaveAccount(ctx context.Context, account *bankstream.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[account.AccountNumber] = account.Copy()

	return nil
}

// SaveTransaction persists a transaction record outside any transfer scope.
// This is the isolated unit of work used by the failure recorder: it
// commits immediately and survives the rollback of an in-flight transfer.
func (l *Ledger) SaveTransaction(ctx context.Context, txn *bankstream.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.transactions[txn.ID] = txn.Copy()

	return nil
}

// TransactionByID returns a copy of the stored transaction
func (l *Ledger) TransactionByID(id string) (*bankstream.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, found := l.transactions[id]
	if !found {
		return nil, &bankstream.NotFoundError{Kind: "transaction", ID: id}
	}

	return txn.Copy(), nil
}

// Transactions returns copies of all stored transactions
func (l *Ledger) Transactions() []*bankstream.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]*bankstream.Transaction, 0, len(l.transactions))
	for _, txn := range l.transactions {
		result = append(result, txn.Copy())
	}

	return result
}

// FailNextCommit makes the next TransferTx.Commit fail with err without
// applying any writes. Test hook for the engine's failure path.
func (l *Ledger) FailNextCommit(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failCommit = err
}

// BeginTransfer locks the ledger and returns a transfer scope exposing
// consistent snapshots of both accounts. The scope holds the ledger lock
// until Commit or Rollback.
func (l *Ledger) BeginTransfer(ctx context.Context, fromNumber, toNumber string) (bankstream.TransferTx, error) {
	l.mu.Lock()

	from, found := l.accounts[fromNumber]
	if !found {
		l.mu.Unlock()
		return nil, bankstream.NewAccountNotFound(fromNumber)
	}

	to, found := l.accounts[toNumber]
	if !found {
		l.mu.Unlock()
		return nil, bankstream.NewAccountNotFound(toNumber)
	}

	return &transferTx{
		ledger: l,
		from:   from.Copy(),
		to:     to.Copy(),
	}, nil
}

type transferTx struct {
	ledger *Ledger
	from   *bankstream.Account
	to     *bankstream.Account
	staged []*bankstream.Transaction
	done   bool
}

func (t *transferTx) From() *bankstream.Account {
	return t.from
}

func (t *transferTx) To() *bankstream.Account {
	return t.to
}

// SaveTransaction stages a transaction record inside this scope. Staged
// records become visible on Commit and are discarded on Rollback.
func (t *transferTx) SaveTransaction(ctx context.Context, txn *bankstream.Transaction) error {
	if t.done {
		return ErrTransferDone
	}

	t.staged = append(t.staged, txn.Copy())

	return nil
}

// Commit makes the staged records, the terminal transaction and both
// account balances visible as one unit and releases the ledger.
func (t *transferTx) Commit(ctx context.Context, txn *bankstream.Transaction, from, to *bankstream.Account) error {
	if t.done {
		return ErrTransferDone
	}
	t.done = true

	l := t.ledger
	defer l.mu.Unlock()

	if err := l.failCommit; err != nil {
		l.failCommit = nil
		return err
	}

	for _, staged := range t.staged {
		l.transactions[staged.ID] = staged
	}
	l.transactions[txn.ID] = txn.Copy()
	l.accounts[from.AccountNumber] = from.Copy()
	l.accounts[to.AccountNumber] = to.Copy()

	return nil
}

// Rollback discards the scope. Calling it after Commit is a no-op.
func (t *transferTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.staged = nil
	t.ledger.mu.Unlock()

	return nil
}
