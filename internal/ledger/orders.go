package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
)

// CreateOrderParams describes a new credit order.
type CreateOrderParams struct {
	WholesalerID string
	ShopOwnerID  string
	Principal    decimal.Decimal

	// InstallmentCount defaults to 1 (lump sum) when zero.
	InstallmentCount int

	// OrderDate defaults to today (UTC) when zero.
	OrderDate time.Time

	Notes string
}

// CreateOrder validates params, generates the EMI schedule and persists the
// order, its installments and a credit ledger entry in one transaction.
func (e *Engine) CreateOrder(ctx context.Context, p CreateOrderParams) (*models.CreditOrder, error) {
	if p.WholesalerID == "" || p.ShopOwnerID == "" {
		return nil, fmt.Errorf("%w: wholesaler and shop owner are required", ErrInvalidOrder)
	}
	if p.WholesalerID == p.ShopOwnerID {
		return nil, fmt.Errorf("%w: wholesaler and shop owner must differ", ErrInvalidOrder)
	}

	count := p.InstallmentCount
	if count == 0 {
		count = 1
	}
	orderDate := p.OrderDate
	if orderDate.IsZero() {
		orderDate = e.now()
	}
	orderDate = models.Day(orderDate)

	installments, err := calculator.BuildSchedule(p.Principal, count, orderDate, models.IntervalDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	// The shop owner lock keeps two orders from passing the limit check together.
	unlock := e.locks.Lock(shopOwnerKey(p.ShopOwnerID))
	defer unlock()

	if err := e.checkCreditLimit(ctx, p.ShopOwnerID, p.Principal); err != nil {
		return nil, err
	}

	order := &models.CreditOrder{
		ID:               uuid.New().String(),
		WholesalerID:     p.WholesalerID,
		ShopOwnerID:      p.ShopOwnerID,
		Principal:        p.Principal,
		OrderDate:        orderDate,
		InstallmentCount: count,
		IntervalDays:     models.IntervalDays,
		Status:           models.OrderActive,
		Notes:            p.Notes,
		Installments:     installments,
	}
	entry := &models.LedgerEntry{
		ShopOwnerID: p.ShopOwnerID,
		Kind:        models.EntryCredit,
		Amount:      p.Principal,
	}
	if err := e.insertNumbered(ctx, order, entry); err != nil {
		return nil, err
	}

	e.metrics.OrderCreated()
	slog.Info("Credit order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"shop_owner_id", order.ShopOwnerID,
		"principal", order.Principal.StringFixed(2),
		"installments", count,
	)
	return order, nil
}

// insertNumbered assigns the next ORD-YYYYMMDD-NNNN number and inserts the order.
func (e *Engine) insertNumbered(ctx context.Context, order *models.CreditOrder, entry *models.LedgerEntry) error {
	unlock := e.locks.Lock(orderNumberKey)
	defer unlock()

	prefix := "ORD-" + e.now().UTC().Format("20060102") + "-"
	n, err := e.store.CountOrderNumbers(ctx, prefix)
	if err != nil {
		return err
	}
	order.OrderNumber = fmt.Sprintf("%s%04d", prefix, n+1)
	entry.Description = fmt.Sprintf("Credit order %s, %d installment(s)", order.OrderNumber, order.InstallmentCount)

	if err := e.store.CreateOrder(ctx, order, entry); err != nil {
		return storeError(err)
	}
	return nil
}

// GetOrder returns an order with its installments.
func (e *Engine) GetOrder(ctx context.Context, orderID string) (*models.CreditOrder, error) {
	return e.loadOrder(ctx, orderID)
}

// ListOrders returns the orders matching filter, newest first.
func (e *Engine) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.CreditOrder, error) {
	return e.store.ListOrders(ctx, filter)
}

// OutstandingBalance returns the unpaid amount of an order's non-waived installments.
func (e *Engine) OutstandingBalance(ctx context.Context, orderID string) (decimal.Decimal, error) {
	order, err := e.loadOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return calculator.Outstanding(order.Installments), nil
}

// ListPayments returns the payments of an order, oldest first.
func (e *Engine) ListPayments(ctx context.Context, orderID string) ([]*models.Payment, error) {
	if _, err := e.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return e.store.ListPayments(ctx, orderID)
}

// ListLedgerEntries returns a shop owner's credit/debit trail, oldest first.
func (e *Engine) ListLedgerEntries(ctx context.Context, shopOwnerID string) ([]*models.LedgerEntry, error) {
	return e.store.ListLedgerEntries(ctx, shopOwnerID)
}
