package bankstream

import "context"

type (
	// Ledger is the durable store of accounts and transactions. It is the
	// sole arbiter of mutual exclusion between concurrent transfers.
	Ledger interface {
		// AccountByNumber resolves an account outside of any transfer
		// scope. Returns a NotFoundError for unknown numbers.
		AccountByNumber(ctx context.Context, number string) (*Account, error)

		// ExistsAccountNumber reports whether an account number is taken.
		// Used by account provisioning, which lives outside this module.
		ExistsAccountNumber(ctx context.Context, number string) (bool, error)

		// SaveAccount inserts or updates an account by identity
		SaveAccount(ctx context.Context, account *Account) error

		// BeginTransfer starts a transfer scoped unit of work holding row
		// locks on both accounts. Implementations must acquire the locks in
		// lexical account number order so two opposing transfers between
		// the same pair cannot deadlock. Returns a NotFoundError when
		// either account is absent.
		BeginTransfer(ctx context.Context, fromNumber, toNumber string) (TransferTx, error)
	}

	// TransferTx is a single transfer's unit of work. The account snapshots
	// it exposes were read under the row locks and are the only balances
	// the engine may use for validation and event construction.
	TransferTx interface {
		From() *Account
		To() *Account

		// SaveTransaction persists a transaction record inside this unit
		// of work. Insert or update by identity.
		SaveTransaction(ctx context.Context, txn *Transaction) error

		// Commit persists both account balances and the terminal
		// transaction state as one atomic unit and releases the locks. An
		// observer can never see the terminal transaction with stale
		// balances, or mutated balances with the transaction still
		// PENDING.
		Commit(ctx context.Context, txn *Transaction, from, to *Account) error

		// Rollback abandons the unit of work. Safe to call after Commit
		// returned an error.
		Rollback(ctx context.Context) error
	}

	// FailureStore persists transaction records in a unit of work that is
	// isolated from any in-flight TransferTx and committed immediately: a
	// rollback of the transfer scope cannot erase what was written here.
	FailureStore interface {
		SaveTransaction(ctx context.Context, txn *Transaction) error
	}

	// CustomerDirectory resolves the customers owning accounts. Read only
	// from this module's perspective.
	CustomerDirectory interface {
		CustomerByID(ctx context.Context, id string) (*Customer, error)
	}
)
