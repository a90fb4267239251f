package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

// DelinquencyOutcome reports what one evaluation changed.
type DelinquencyOutcome struct {
	Order *models.CreditOrder

	// NewlyOverdue lists installments moved to overdue by this run.
	NewlyOverdue []int

	// Overdue is the number of overdue installments after the run.
	Overdue int

	// Defaulted is set when this run moved the order to defaulted.
	Defaulted bool
}

// Changed reports whether anything was written.
func (o *DelinquencyOutcome) Changed() bool {
	return len(o.NewlyOverdue) > 0 || o.Defaulted
}

// EvaluateDelinquency marks pending installments due before asOf as overdue
// and defaults an active order when the policy threshold is exceeded.
// Defaulted orders keep having installments marked overdue but are not
// defaulted again. Completed and cancelled orders are left untouched.
// Re-running with the same date writes nothing.
func (e *Engine) EvaluateDelinquency(ctx context.Context, orderID string, asOf time.Time) (*DelinquencyOutcome, error) {
	if asOf.IsZero() {
		asOf = e.now()
	}

	unlock := e.locks.Lock(orderKey(orderID))
	defer unlock()

	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderActive && order.Status != models.OrderDefaulted {
		return &DelinquencyOutcome{Order: order}, nil
	}

	result := calculator.EvaluateDelinquency(order.Installments, asOf, e.policy)
	outcome := &DelinquencyOutcome{
		Order:        order,
		NewlyOverdue: result.NewlyOverdue,
		Overdue:      result.Overdue,
		Defaulted:    result.Default && order.Status == models.OrderActive,
	}
	if !outcome.Changed() {
		return outcome, nil
	}

	next := order.Clone()
	next.Installments = result.Installments
	if outcome.Defaulted {
		next.Status = models.OrderDefaulted
	}
	err = e.store.ApplyOrderChange(ctx, &storage.OrderChange{
		Order:           next,
		ExpectedVersion: order.Version,
	})
	if err != nil {
		return nil, storeError(err)
	}
	outcome.Order = next

	e.metrics.InstallmentsOverdue(len(result.NewlyOverdue))
	if len(result.NewlyOverdue) > 0 {
		slog.Info("Installments overdue",
			"order_id", next.ID,
			"sequences", result.NewlyOverdue,
			"as_of", models.Day(asOf).Format(models.DateLayout),
		)
		e.notifier.InstallmentsOverdue(ctx, next, result.NewlyOverdue)
	}
	if outcome.Defaulted {
		e.metrics.OrderDefaulted()
		slog.Warn("Credit order defaulted",
			"order_id", next.ID,
			"order_number", next.OrderNumber,
			"overdue", result.Overdue,
		)
		e.notifier.OrderDefaulted(ctx, next)
	}
	return outcome, nil
}

// SweepSummary aggregates one EvaluateAll run.
type SweepSummary struct {
	AsOf         time.Time
	Scanned      int
	NewlyOverdue int
	Defaulted    int
	Failed       int
}

// EvaluateAll runs EvaluateDelinquency over every active and defaulted
// order. Failures of single orders do not stop the sweep; they are returned
// joined.
func (e *Engine) EvaluateAll(ctx context.Context, asOf time.Time) (SweepSummary, error) {
	if asOf.IsZero() {
		asOf = e.now()
	}
	start := time.Now()
	summary := SweepSummary{AsOf: models.Day(asOf)}

	var orders []*models.CreditOrder
	for _, status := range []models.OrderStatus{models.OrderActive, models.OrderDefaulted} {
		batch, err := e.store.ListOrders(ctx, OrderFilter{Status: status})
		if err != nil {
			return summary, fmt.Errorf("failed to list %s orders: %w", status, err)
		}
		orders = append(orders, batch...)
	}

	var errs []error
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		outcome, err := e.EvaluateDelinquency(ctx, order.ID, asOf)
		if err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		summary.Scanned++
		summary.NewlyOverdue += len(outcome.NewlyOverdue)
		if outcome.Defaulted {
			summary.Defaulted++
		}
	}

	e.metrics.ObserveSweep(time.Since(start))
	slog.Info("Delinquency sweep finished",
		"as_of", summary.AsOf.Format(models.DateLayout),
		"scanned", summary.Scanned,
		"newly_overdue", summary.NewlyOverdue,
		"defaulted", summary.Defaulted,
		"failed", summary.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, errors.Join(errs...)
}
