package sqlite

// schema contains the statements that set up the database.
// They run on startup to ensure tables exist.
// Amounts are stored as decimal strings; dates as YYYY-MM-DD.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS parties (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    credit_limit TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS credit_orders (
    id TEXT PRIMARY KEY,
    order_number TEXT NOT NULL UNIQUE,
    wholesaler_id TEXT NOT NULL,
    shop_owner_id TEXT NOT NULL,
    principal TEXT NOT NULL,
    order_date TEXT NOT NULL,
    installment_count INTEGER NOT NULL CHECK (installment_count >= 1),
    interval_days INTEGER NOT NULL,
    status TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS installments (
    order_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    due_date TEXT NOT NULL,
    amount_due TEXT NOT NULL,
    amount_paid TEXT NOT NULL,
    status TEXT NOT NULL,
    paid_at INTEGER NOT NULL DEFAULT 0,
    late BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (order_id, sequence),
    FOREIGN KEY (order_id) REFERENCES credit_orders(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS payments (
    payment_no INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    order_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    received_at INTEGER NOT NULL,
    reference TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (order_id) REFERENCES credit_orders(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS payment_allocations (
    payment_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (payment_id, sequence),
    FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
    entry_no INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    shop_owner_id TEXT NOT NULL,
    order_id TEXT NOT NULL,
    sequence INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    amount TEXT NOT NULL,
    balance_after TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_orders_shop_owner ON credit_orders(shop_owner_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_orders_wholesaler ON credit_orders(wholesaler_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_shop_owner ON ledger_entries(shop_owner_id)`,
}
