package postgres

// schema is the DDL for the ledger tables. NUMERIC keeps balances and
// amounts in fixed point; they are never floats anywhere in the system.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	account_number TEXT NOT NULL UNIQUE,
	customer_id    TEXT NOT NULL,
	currency       TEXT NOT NULL,
	status         TEXT NOT NULL,
	balance        NUMERIC(19, 4) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id               TEXT PRIMARY KEY,
	from_account_id  TEXT NOT NULL,
	to_account_id    TEXT NOT NULL,
	amount           NUMERIC(19, 4) NOT NULL,
	currency         TEXT NOT NULL,
	status           TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	reference_number TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	processed_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS transactions_from_account_idx ON transactions (from_account_id);
CREATE INDEX IF NOT EXISTS transactions_to_account_idx ON transactions (to_account_id);

CREATE TABLE IF NOT EXISTS customers (
	id                           TEXT PRIMARY KEY,
	name                         TEXT NOT NULL,
	category                     TEXT NOT NULL,
	national_id                  TEXT NOT NULL DEFAULT '',
	business_registration_number TEXT NOT NULL DEFAULT '',
	vip_level                    TEXT NOT NULL DEFAULT ''
);
`
