package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/quantabank/bankstream"
)

// Ensure that we satisfy the bankstream.CustomerDirectory interface
var _ bankstream.CustomerDirectory = &Directory{}

const customerColumns = `id, name, category, national_id, business_registration_number, vip_level`

// Directory resolves customers from the customers table. Read only.
type Directory struct {
	db *sqlx.DB
}

// NewDirectory returns a postgres.Directory
func NewDirectory(db *sqlx.DB) (*Directory, error) {
	if db == nil {
		return nil, bankstream.InvalidArgumentError("db")
	}

	return &Directory{db: db}, nil
}

// CustomerByID resolves a customer by id
func (d *Directory) CustomerByID(ctx context.Context, id string) (*bankstream.Customer, error) {
	var customer bankstream.Customer
	err := d.db.GetContext(ctx, &customer,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, bankstream.NewCustomerNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

// SaveCustomer inserts or updates a customer by identity. Customer
// registration itself lives outside this module; this is provisioning
// support for tooling and tests.
func (d *Directory) SaveCustomer(ctx context.Context, customer *bankstream.Customer) error {
	_, err := d.db.NamedExecContext(ctx, `
		INSERT INTO customers (id, name, category, national_id, business_registration_number, vip_level)
		VALUES (:id, :name, :category, :national_id, :business_registration_number, :vip_level)
		ON CONFLICT (id) DO UPDATE
		SET name                         = EXCLUDED.name,
		    category                     = EXCLUDED.category,
		    national_id                  = EXCLUDED.national_id,
		    business_registration_number = EXCLUDED.business_registration_number,
		    vip_level                    = EXCLUDED.vip_level`, customer)

	return err
}
