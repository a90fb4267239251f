// Package models defines the core domain models for ShopCredit.
//
// # Ledger Models
//
//   - CreditOrder: credit extended by a wholesaler to a shop owner for one purchase
//   - Installment: one scheduled repayment of a CreditOrder (EMI)
//   - Payment: an immutable record of money received against an order
//   - LedgerEntry: append-only credit/debit trail per shop owner
//   - Party: a registered wholesaler, shop owner or admin
//
// # Conventions
//
// 1. Money is always decimal.Decimal with two minor digits, never float64
// 2. Calendar dates (order date, due date) are UTC midnight values; use Day to normalize
// 3. Timestamps are Unix seconds
// 4. Relationships use ID strings instead of pointers
package models

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of the same calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
