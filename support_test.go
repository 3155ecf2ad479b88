//go:build unit

package bankstream_test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quantabank/bankstream"
	"github.com/quantabank/bankstream/driver/inmemory"
)

// capturePublisher records published events for assertions
type capturePublisher struct {
	mu     sync.Mutex
	events []*bankstream.TransactionEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event *bankstream.TransactionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
}

func (p *capturePublisher) PublishSync(ctx context.Context, event *bankstream.TransactionEvent) error {
	p.Publish(ctx, event)
	return nil
}

func (p *capturePublisher) published() []*bankstream.TransactionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := make([]*bankstream.TransactionEvent, len(p.events))
	copy(events, p.events)

	return events
}

func activeAccount(id, number, customerID string, currency bankstream.Currency, balance int64) *bankstream.Account {
	return &bankstream.Account{
		ID:            id,
		AccountNumber: number,
		CustomerID:    customerID,
		Currency:      currency,
		Status:        bankstream.AccountActive,
		Balance:       decimal.NewFromInt(balance),
	}
}

func individualCustomer(id, name, nationalID string) *bankstream.Customer {
	return &bankstream.Customer{
		ID:         id,
		Name:       name,
		Category:   bankstream.CategoryIndividual,
		NationalID: nationalID,
	}
}

func businessCustomer(id, name, registration string) *bankstream.Customer {
	return &bankstream.Customer{
		ID:                         id,
		Name:                       name,
		Category:                   bankstream.CategoryBusiness,
		BusinessRegistrationNumber: registration,
	}
}

func vipCustomer(id, name, level string) *bankstream.Customer {
	return &bankstream.Customer{
		ID:       id,
		Name:     name,
		Category: bankstream.CategoryVIP,
		VIPLevel: level,
	}
}

// seededStores returns a ledger holding two funded USD accounts and the
// directory holding their owners.
func seededStores() (*inmemory.Ledger, *inmemory.Directory) {
	ledger := inmemory.NewLedger(nil)
	_ = ledger.AddAccount(activeAccount("acc-1", "IL100001", "cust-1", bankstream.USD, 1000))
	_ = ledger.AddAccount(activeAccount("acc-2", "IL100002", "cust-2", bankstream.USD, 500))

	directory := inmemory.NewDirectory()
	directory.AddCustomer(individualCustomer("cust-1", "Alice Cohen", "123456789"))
	directory.AddCustomer(individualCustomer("cust-2", "Bob Levi", "987654321"))

	return ledger, directory
}
