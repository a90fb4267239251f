package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CreditSummary is a shop owner's current credit position.
type CreditSummary struct {
	ShopOwnerID string
	Exposure    decimal.Decimal

	// Limit and Available are meaningful only when HasLimit is set.
	HasLimit  bool
	Limit     decimal.Decimal
	Available decimal.Decimal
}

// ShopOwnerExposure sums the outstanding balance over the shop owner's
// active and defaulted orders.
func (e *Engine) ShopOwnerExposure(ctx context.Context, shopOwnerID string) (decimal.Decimal, error) {
	return e.store.ShopOwnerExposure(ctx, shopOwnerID)
}

// CreditSummary returns exposure, limit and available credit for a shop owner.
func (e *Engine) CreditSummary(ctx context.Context, shopOwnerID string) (*CreditSummary, error) {
	exposure, err := e.store.ShopOwnerExposure(ctx, shopOwnerID)
	if err != nil {
		return nil, err
	}
	summary := &CreditSummary{ShopOwnerID: shopOwnerID, Exposure: exposure}
	if e.limits == nil {
		return summary, nil
	}

	limit, ok, err := e.limits.CreditLimit(ctx, shopOwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credit limit: %w", err)
	}
	if ok {
		summary.HasLimit = true
		summary.Limit = limit
		summary.Available = decimal.Max(limit.Sub(exposure), decimal.Zero)
	}
	return summary, nil
}

func (e *Engine) checkCreditLimit(ctx context.Context, shopOwnerID string, principal decimal.Decimal) error {
	if e.limits == nil {
		return nil
	}
	limit, ok, err := e.limits.CreditLimit(ctx, shopOwnerID)
	if err != nil {
		return fmt.Errorf("failed to resolve credit limit: %w", err)
	}
	if !ok {
		return nil
	}

	exposure, err := e.store.ShopOwnerExposure(ctx, shopOwnerID)
	if err != nil {
		return err
	}
	if exposure.Add(principal).GreaterThan(limit) {
		return fmt.Errorf("%w: requested %s, available %s of %s",
			ErrCreditLimitExceeded, principal.StringFixed(2),
			decimal.Max(limit.Sub(exposure), decimal.Zero).StringFixed(2), limit.StringFixed(2))
	}
	return nil
}
