package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a CreditOrder.
type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderCompleted OrderStatus = "completed"
	OrderDefaulted OrderStatus = "defaulted"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderActive, OrderCompleted, OrderDefaulted, OrderCancelled:
		return true
	}
	return false
}

// InstallmentStatus is the state of a single EMI installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentWaived  InstallmentStatus = "waived"
)

// IntervalDays is the fixed spacing between installment due dates.
const IntervalDays = 30

// CreditOrder represents one extension of credit from a wholesaler to a shop owner.
type CreditOrder struct {
	// ID is the unique identifier for the order (UUID format).
	ID string

	// OrderNumber is the human-readable number, ORD-YYYYMMDD-NNNN.
	OrderNumber string

	WholesalerID string
	ShopOwnerID  string

	// Principal is the credited amount. Always positive, two minor digits.
	Principal decimal.Decimal

	// OrderDate anchors the installment due dates (UTC midnight).
	OrderDate time.Time

	InstallmentCount int
	IntervalDays     int

	Status OrderStatus
	Notes  string

	// Version increments on every persisted mutation and guards
	// against lost updates from concurrent writers.
	Version int64

	CreatedAt int64
	UpdatedAt int64

	// Installments are ordered by Sequence.
	Installments []Installment
}

// Installment is one scheduled repayment unit of a CreditOrder.
type Installment struct {
	OrderID  string
	Sequence int
	DueDate  time.Time

	AmountDue  decimal.Decimal
	AmountPaid decimal.Decimal

	Status InstallmentStatus

	// PaidAt is the Unix timestamp of the payment that settled the installment.
	PaidAt int64

	// Late is set when the installment was settled after its due date.
	Late bool
}

// Remaining returns the unpaid part of the installment.
func (i Installment) Remaining() decimal.Decimal {
	return i.AmountDue.Sub(i.AmountPaid)
}

// Open reports whether the installment can still receive payments.
func (i Installment) Open() bool {
	return i.Status == InstallmentPending || i.Status == InstallmentOverdue
}

// Clone returns a deep copy of the order, including installments.
func (o *CreditOrder) Clone() *CreditOrder {
	c := *o
	c.Installments = append([]Installment(nil), o.Installments...)
	return &c
}
