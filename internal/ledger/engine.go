// Package ledger implements the credit ledger engine: credit orders with EMI
// schedules, FIFO payment allocation, outstanding balances and delinquency.
//
// Mutations of one order are serialized in-process by a per-order lock and
// across processes by the order version checked on every write. A lost race
// surfaces as ErrConcurrencyConflict; the engine never retries on its own.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/metrics"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

// OrderFilter narrows ListOrders.
type OrderFilter = storage.OrderFilter

// CreditLimitProvider resolves the credit limit of a shop owner.
// ok is false when no limit is known, in which case no limit applies.
type CreditLimitProvider interface {
	CreditLimit(ctx context.Context, shopOwnerID string) (limit decimal.Decimal, ok bool, err error)
}

// Notifier is told about delinquency transitions after they are committed.
// Implementations must not block for long and must handle their own errors.
type Notifier interface {
	InstallmentsOverdue(ctx context.Context, order *models.CreditOrder, sequences []int)
	OrderDefaulted(ctx context.Context, order *models.CreditOrder)
}

// Engine is the credit ledger. It is safe for concurrent use.
type Engine struct {
	store    storage.Store
	limits   CreditLimitProvider
	notifier Notifier
	metrics  *metrics.Metrics
	policy   calculator.DelinquencyPolicy
	now      func() time.Time
	locks    *keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithCreditLimits enables credit limit checks on CreateOrder.
func WithCreditLimits(p CreditLimitProvider) Option {
	return func(e *Engine) { e.limits = p }
}

// WithNotifier sets the receiver of delinquency events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPolicy overrides the default delinquency policy.
func WithPolicy(p calculator.DelinquencyPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: nopNotifier{},
		policy:   calculator.DefaultPolicy(),
		now:      time.Now,
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the delinquency policy in effect.
func (e *Engine) Policy() calculator.DelinquencyPolicy {
	return e.policy
}

func (e *Engine) loadOrder(ctx context.Context, orderID string) (*models.CreditOrder, error) {
	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeError(err)
	}
	return order, nil
}

type nopNotifier struct{}

func (nopNotifier) InstallmentsOverdue(context.Context, *models.CreditOrder, []int) {}
func (nopNotifier) OrderDefaulted(context.Context, *models.CreditOrder)            {}
