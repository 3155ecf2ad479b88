package inmemory

import (
	"context"
	"sync"

	"github.com/quantabank/bankstream"
)

// Ensure that we satisfy the bankstream.CustomerDirectory interface
var _ bankstream.CustomerDirectory = &Directory{}

// Directory is an in memory customer directory
type Directory struct {
	sync.RWMutex

	customers map[string]*bankstream.Customer
}

// NewDirectory returns an empty Directory
func NewDirectory() *Directory {
	return &Directory{customers: map[string]*bankstream.Customer{}}
}

// AddCustomer seeds the directory with a customer
func (d *Directory) AddCustomer(customer *bankstream.Customer) {
	d.Lock()
	defer d.Unlock()

	copied := *customer
	d.customers[customer.ID] = &copied
}

// CustomerByID returns a copy of the customer with the given id
func (d *Directory) CustomerByID(ctx context.Context, id string) (*bankstream.Customer, error) {
	d.RLock()
	defer d.RUnlock()

	customer, found := d.customers[id]
	if !found {
		return nil, bankstream.NewCustomerNotFound(id)
	}

	copied := *customer

	return &copied, nil
}
