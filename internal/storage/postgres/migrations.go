package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS parties (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    credit_limit NUMERIC(14, 2) NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS credit_orders (
    id TEXT PRIMARY KEY,
    order_number TEXT NOT NULL UNIQUE,
    wholesaler_id TEXT NOT NULL,
    shop_owner_id TEXT NOT NULL,
    principal NUMERIC(14, 2) NOT NULL CHECK (principal > 0),
    order_date TEXT NOT NULL,
    installment_count INTEGER NOT NULL CHECK (installment_count >= 1),
    interval_days INTEGER NOT NULL,
    status TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    version BIGINT NOT NULL DEFAULT 1,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS installments (
    order_id TEXT NOT NULL REFERENCES credit_orders(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    due_date TEXT NOT NULL,
    amount_due NUMERIC(14, 2) NOT NULL,
    amount_paid NUMERIC(14, 2) NOT NULL,
    status TEXT NOT NULL,
    paid_at BIGINT NOT NULL DEFAULT 0,
    late BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (order_id, sequence),
    CHECK (amount_paid <= amount_due)
)`,
	`CREATE TABLE IF NOT EXISTS payments (
    payment_no BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    order_id TEXT NOT NULL REFERENCES credit_orders(id) ON DELETE CASCADE,
    amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
    received_at BIGINT NOT NULL,
    reference TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS payment_allocations (
    payment_id TEXT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    amount NUMERIC(14, 2) NOT NULL,
    PRIMARY KEY (payment_id, sequence)
)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
    entry_no BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    shop_owner_id TEXT NOT NULL,
    order_id TEXT NOT NULL,
    sequence INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    amount NUMERIC(14, 2) NOT NULL,
    balance_after NUMERIC(14, 2) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_orders_shop_owner ON credit_orders(shop_owner_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_orders_wholesaler ON credit_orders(wholesaler_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_shop_owner ON ledger_entries(shop_owner_id)`,
}
