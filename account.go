package bankstream

import "github.com/shopspring/decimal"

// AccountStatus is the lifecycle state of an account. Only ACTIVE accounts
// can take part in a transfer.
type AccountStatus string

const (
	// AccountActive marks an account that can send and receive transfers
	AccountActive AccountStatus = "ACTIVE"
	// AccountInactive marks a dormant account
	AccountInactive AccountStatus = "INACTIVE"
	// AccountFrozen marks an account blocked by compliance
	AccountFrozen AccountStatus = "FROZEN"
	// AccountClosed marks a closed account
	AccountClosed AccountStatus = "CLOSED"
)

// Account is a single-currency balance owned by one customer. Its balance
// is only ever mutated through the transfer engine's unit of work and must
// never go negative as the effect of a completed transfer.
type Account struct {
	ID            string          `db:"id"`
	AccountNumber string          `db:"account_number"`
	CustomerID    string          `db:"customer_id"`
	Currency      Currency        `db:"currency"`
	Status        AccountStatus   `db:"status"`
	Balance       decimal.Decimal `db:"balance"`
}

// Copy returns an independent copy of the account
func (a *Account) Copy() *Account {
	copied := *a
	return &copied
}
