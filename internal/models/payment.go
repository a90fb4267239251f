package models

import "github.com/shopspring/decimal"

// Payment is an immutable record of money received against a CreditOrder.
type Payment struct {
	ID      string
	OrderID string
	Amount  decimal.Decimal

	// ReceivedAt is the Unix timestamp of the payment.
	ReceivedAt int64

	// Reference is an optional external reference (UPI id, cheque number).
	Reference string

	// Allocations list how the amount was spread over installments, in FIFO order.
	Allocations []Allocation
}

// Allocation is the part of a payment applied to one installment.
type Allocation struct {
	Sequence int
	Amount   decimal.Decimal
}

// EntryKind distinguishes ledger credits (money lent) from debits (money recovered or written off).
type EntryKind string

const (
	EntryCredit EntryKind = "credit"
	EntryDebit  EntryKind = "debit"
)

// LedgerEntry is one line of a shop owner's append-only credit ledger.
type LedgerEntry struct {
	ID          string
	ShopOwnerID string
	OrderID     string

	// Sequence is the installment the entry refers to, 0 when it covers the whole order.
	Sequence int

	Kind   EntryKind
	Amount decimal.Decimal

	// BalanceAfter is the shop owner's total outstanding once this entry is applied.
	// Filled in by the store inside the writing transaction.
	BalanceAfter decimal.Decimal

	Description string
	CreatedAt   int64
}
