// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when an order changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// OrderFilter narrows ListOrders. Empty fields match everything.
type OrderFilter struct {
	ShopOwnerID  string
	WholesalerID string
	Status       models.OrderStatus
}

// OrderChange is one atomic mutation of an existing order.
type OrderChange struct {
	// Order carries the new status and installment states.
	Order *models.CreditOrder

	// ExpectedVersion must match the stored version, otherwise
	// the change is rejected with ErrVersionConflict.
	ExpectedVersion int64

	// Payment is recorded with its allocations when set.
	Payment *models.Payment

	// Entry is appended to the shop owner's ledger when set.
	// Its BalanceAfter is computed inside the transaction.
	Entry *models.LedgerEntry
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the ledger engine.
type Store interface {
	// CreateOrder persists a new order, its installments and its opening
	// ledger entry in one transaction.
	CreateOrder(ctx context.Context, order *models.CreditOrder, entry *models.LedgerEntry) error

	// GetOrder retrieves an order with its installments.
	// Returns ErrNotFound if the order does not exist.
	GetOrder(ctx context.Context, orderID string) (*models.CreditOrder, error)

	// ListOrders returns matching orders with installments, newest first.
	ListOrders(ctx context.Context, filter OrderFilter) ([]*models.CreditOrder, error)

	// CountOrderNumbers counts orders whose number starts with prefix.
	CountOrderNumbers(ctx context.Context, prefix string) (int, error)

	// ApplyOrderChange writes a mutation guarded by the order version.
	// On success the order's Version is advanced.
	ApplyOrderChange(ctx context.Context, change *OrderChange) error

	// ListPayments returns the payments of an order, oldest first.
	ListPayments(ctx context.Context, orderID string) ([]*models.Payment, error)

	// ListLedgerEntries returns a shop owner's ledger, oldest first.
	ListLedgerEntries(ctx context.Context, shopOwnerID string) ([]*models.LedgerEntry, error)

	// ShopOwnerExposure sums the outstanding balance over the shop owner's
	// active and defaulted orders.
	ShopOwnerExposure(ctx context.Context, shopOwnerID string) (decimal.Decimal, error)

	PartyStore

	// Close releases any resources held by the store.
	Close() error
}

// PartyStore persists registered parties.
type PartyStore interface {
	CreateParty(ctx context.Context, party *models.Party) error
	// GetPartyByEmail and GetPartyByID return ErrNotFound for unknown parties.
	GetPartyByEmail(ctx context.Context, email string) (*models.Party, error)
	GetPartyByID(ctx context.Context, id string) (*models.Party, error)
	SetCreditLimit(ctx context.Context, partyID string, limit decimal.Decimal) error
}
