package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/models"
)

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	order := createOrder(t, e, "shop-1", "300", 3)

	_, err := e.RecordPayment(ctx, RecordPaymentParams{OrderID: order.ID, Amount: dec("100")})
	require.NoError(t, err)

	cancelled, err := e.CancelOrder(ctx, order.ID, "goods returned")
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, cancelled.Status)

	exposure, err := e.ShopOwnerExposure(ctx, "shop-1")
	require.NoError(t, err)
	require.True(t, exposure.IsZero())

	entries, err := e.ListLedgerEntries(ctx, "shop-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	last := entries[2]
	require.Equal(t, models.EntryDebit, last.Kind)
	require.True(t, last.Amount.Equal(dec("200")))
	require.True(t, last.BalanceAfter.IsZero())
	require.Contains(t, last.Description, "goods returned")

	_, err = e.CancelOrder(ctx, order.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = e.CancelOrder(ctx, "missing", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWaiveInstallment(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	order := createOrder(t, e, "shop-1", "300", 3)

	_, err := e.RecordPayment(ctx, RecordPaymentParams{OrderID: order.ID, Amount: dec("150")})
	require.NoError(t, err)

	waived, err := e.WaiveInstallment(ctx, order.ID, 2, "damaged stock")
	require.NoError(t, err)
	require.Equal(t, models.InstallmentWaived, waived.Installments[1].Status)
	require.Equal(t, models.OrderActive, waived.Status)

	outstanding, err := e.OutstandingBalance(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, outstanding.Equal(dec("100")))

	entries, err := e.ListLedgerEntries(ctx, "shop-1")
	require.NoError(t, err)
	last := entries[len(entries)-1]
	require.Equal(t, 2, last.Sequence)
	require.True(t, last.Amount.Equal(dec("50")), "only the unpaid part is written off")

	_, err = e.WaiveInstallment(ctx, order.ID, 1, "")
	require.ErrorIs(t, err, ErrInvalidTransition, "paid installment cannot be waived")

	_, err = e.WaiveInstallment(ctx, order.ID, 9, "")
	require.ErrorIs(t, err, ErrNotFound)

	// Paying the rest now completes the order; waived installments are skipped.
	res, err := e.RecordPayment(ctx, RecordPaymentParams{OrderID: order.ID, Amount: dec("100")})
	require.NoError(t, err)
	require.Equal(t, models.OrderCompleted, res.Order.Status)
}

func TestWaiveLastOpenInstallmentCompletes(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	order := createOrder(t, e, "shop-1", "100", 1)

	got, err := e.WaiveInstallment(ctx, order.ID, 1, "")
	require.NoError(t, err)
	require.Equal(t, models.OrderCompleted, got.Status)

	_, err = e.WaiveInstallment(ctx, order.ID, 1, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}
