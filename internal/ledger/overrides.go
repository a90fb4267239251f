package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

// CancelOrder moves an active order to cancelled and writes a debit entry
// for its outstanding balance, restoring the shop owner's available credit.
func (e *Engine) CancelOrder(ctx context.Context, orderID, reason string) (*models.CreditOrder, error) {
	unlock := e.locks.Lock(orderKey(orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderActive {
		return nil, fmt.Errorf("%w: cannot cancel %s order", ErrInvalidTransition, order.Status)
	}

	next := order.Clone()
	next.Status = models.OrderCancelled

	change := &storage.OrderChange{Order: next, ExpectedVersion: order.Version}
	if outstanding := calculator.Outstanding(order.Installments); outstanding.IsPositive() {
		change.Entry = &models.LedgerEntry{
			ShopOwnerID: order.ShopOwnerID,
			OrderID:     order.ID,
			Kind:        models.EntryDebit,
			Amount:      outstanding,
			Description: withReason(fmt.Sprintf("Order %s cancelled", order.OrderNumber), reason),
		}
	}
	if err := e.store.ApplyOrderChange(ctx, change); err != nil {
		return nil, storeError(err)
	}

	e.metrics.OrderCancelled()
	slog.Info("Credit order cancelled", "order_id", order.ID, "reason", reason)
	return next, nil
}

// WaiveInstallment writes off the unpaid part of one installment. Waived
// installments no longer count towards the outstanding balance; an active
// order whose remaining installments are all paid completes.
func (e *Engine) WaiveInstallment(ctx context.Context, orderID string, sequence int, reason string) (*models.CreditOrder, error) {
	unlock := e.locks.Lock(orderKey(orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderActive && order.Status != models.OrderDefaulted {
		return nil, fmt.Errorf("%w: cannot waive on %s order", ErrInvalidTransition, order.Status)
	}

	next := order.Clone()
	idx := -1
	for i := range next.Installments {
		if next.Installments[i].Sequence == sequence {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: installment %d of order %s", ErrNotFound, sequence, order.ID)
	}
	inst := &next.Installments[idx]
	if !inst.Open() {
		return nil, fmt.Errorf("%w: installment %d is %s", ErrInvalidTransition, sequence, inst.Status)
	}

	remaining := inst.Remaining()
	inst.Status = models.InstallmentWaived
	if next.Status == models.OrderActive && calculator.Settled(next.Installments) {
		next.Status = models.OrderCompleted
	}

	err = e.store.ApplyOrderChange(ctx, &storage.OrderChange{
		Order:           next,
		ExpectedVersion: order.Version,
		Entry: &models.LedgerEntry{
			ShopOwnerID: order.ShopOwnerID,
			OrderID:     order.ID,
			Sequence:    sequence,
			Kind:        models.EntryDebit,
			Amount:      remaining,
			Description: withReason(fmt.Sprintf("EMI %d of %s waived", sequence, order.OrderNumber), reason),
		},
	})
	if err != nil {
		return nil, storeError(err)
	}

	e.metrics.InstallmentWaived()
	slog.Info("Installment waived",
		"order_id", order.ID,
		"sequence", sequence,
		"amount", remaining.StringFixed(2),
		"reason", reason,
	)
	return next, nil
}

func withReason(s, reason string) string {
	if reason == "" {
		return s
	}
	return s + ": " + reason
}
