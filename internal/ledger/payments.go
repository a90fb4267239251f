package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

// RecordPaymentParams describes money received against an order.
type RecordPaymentParams struct {
	OrderID string
	Amount  decimal.Decimal

	// ReceivedAt defaults to now when zero.
	ReceivedAt time.Time

	Reference string
}

// PaymentResult is the committed state after a payment.
type PaymentResult struct {
	Order       *models.CreditOrder
	Payment     *models.Payment
	Outstanding decimal.Decimal
}

// RecordPayment applies a payment FIFO across the order's open installments.
// Payments above the outstanding balance fail with ErrOverpayment and commit
// nothing. Cancelled orders reject payments with ErrOrderClosed. Completed
// orders have nothing left to pay, so their error matches both ErrOrderClosed
// and ErrOverpayment. Active orders complete once every installment is
// settled; defaulted orders accept recovery payments but stay defaulted.
func (e *Engine) RecordPayment(ctx context.Context, p RecordPaymentParams) (*PaymentResult, error) {
	if err := calculator.ValidateAmount(p.Amount); err != nil {
		e.metrics.PaymentRejected("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}
	receivedAt := p.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = e.now()
	}

	unlock := e.locks.Lock(orderKey(p.OrderID))
	defer unlock()

	order, err := e.loadOrder(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderCompleted:
		e.metrics.PaymentRejected("closed")
		return nil, fmt.Errorf("%w: %w: order %s is fully paid", ErrOrderClosed, ErrOverpayment, order.OrderNumber)
	case models.OrderCancelled:
		e.metrics.PaymentRejected("closed")
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderClosed, order.OrderNumber, order.Status)
	}

	installments, allocations, err := calculator.AllocatePayment(order.Installments, p.Amount, receivedAt)
	if err != nil {
		if errors.Is(err, ErrOverpayment) {
			e.metrics.PaymentRejected("overpayment")
			return nil, err
		}
		e.metrics.PaymentRejected("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}

	next := order.Clone()
	next.Installments = installments
	if next.Status == models.OrderActive && calculator.Settled(installments) {
		next.Status = models.OrderCompleted
	}

	payment := &models.Payment{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Amount:      p.Amount,
		ReceivedAt:  receivedAt.Unix(),
		Reference:   p.Reference,
		Allocations: allocations,
	}
	entry := &models.LedgerEntry{
		ShopOwnerID: order.ShopOwnerID,
		OrderID:     order.ID,
		Kind:        models.EntryDebit,
		Amount:      p.Amount,
		Description: fmt.Sprintf("Payment for %s", order.OrderNumber),
	}
	if len(allocations) == 1 {
		entry.Sequence = allocations[0].Sequence
		entry.Description = fmt.Sprintf("EMI %d payment for %s", entry.Sequence, order.OrderNumber)
	}
	if p.Reference != "" {
		entry.Description += " (ref " + p.Reference + ")"
	}

	err = e.store.ApplyOrderChange(ctx, &storage.OrderChange{
		Order:           next,
		ExpectedVersion: order.Version,
		Payment:         payment,
		Entry:           entry,
	})
	if err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			e.metrics.PaymentRejected("conflict")
		}
		return nil, storeError(err)
	}

	outstanding := calculator.Outstanding(installments)
	e.metrics.PaymentRecorded(p.Amount)
	slog.Info("Payment recorded",
		"order_id", order.ID,
		"payment_id", payment.ID,
		"amount", p.Amount.StringFixed(2),
		"installments_touched", len(allocations),
		"outstanding", outstanding.StringFixed(2),
		"status", next.Status,
	)
	return &PaymentResult{Order: next, Payment: payment, Outstanding: outstanding}, nil
}
