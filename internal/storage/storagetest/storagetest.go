// Package storagetest holds a conformance suite shared by every storage.Store backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

// Run executes the suite. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("CreateOrder round trip", func(t *testing.T) { testCreateOrder(t, newStore(t)) })
	t.Run("GetOrder unknown", func(t *testing.T) { testGetOrderUnknown(t, newStore(t)) })
	t.Run("duplicate order number", func(t *testing.T) { testDuplicateOrderNumber(t, newStore(t)) })
	t.Run("ApplyOrderChange", func(t *testing.T) { testApplyOrderChange(t, newStore(t)) })
	t.Run("stale version", func(t *testing.T) { testStaleVersion(t, newStore(t)) })
	t.Run("CreateOrder rollback", func(t *testing.T) { testCreateOrderRollback(t, newStore(t)) })
	t.Run("ApplyOrderChange rollback", func(t *testing.T) { testApplyOrderChangeRollback(t, newStore(t)) })
	t.Run("payments keep commit order", func(t *testing.T) { testPaymentOrder(t, newStore(t)) })
	t.Run("GetOrder snapshot", func(t *testing.T) { testGetOrderSnapshot(t, newStore(t)) })
	t.Run("ListOrders filters", func(t *testing.T) { testListOrders(t, newStore(t)) })
	t.Run("exposure", func(t *testing.T) { testExposure(t, newStore(t)) })
	t.Run("parties", func(t *testing.T) { testParties(t, newStore(t)) })
}

var orderDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewOrder builds an unsaved active order with a generated schedule.
func NewOrder(t *testing.T, shopOwnerID, principal string, count int) *models.CreditOrder {
	t.Helper()
	p := decimal.RequireFromString(principal)
	insts, err := calculator.BuildSchedule(p, count, orderDate, models.IntervalDays)
	require.NoError(t, err)
	return &models.CreditOrder{
		OrderNumber:      fmt.Sprintf("ORD-20240101-%s", uuid.NewString()[:8]),
		WholesalerID:     "wholesaler-1",
		ShopOwnerID:      shopOwnerID,
		Principal:        p,
		OrderDate:        orderDate,
		InstallmentCount: count,
		IntervalDays:     models.IntervalDays,
		Status:           models.OrderActive,
		Installments:     insts,
	}
}

func creditEntry(order *models.CreditOrder) *models.LedgerEntry {
	return &models.LedgerEntry{
		ShopOwnerID: order.ShopOwnerID,
		Kind:        models.EntryCredit,
		Amount:      order.Principal,
		Description: "credit order " + order.OrderNumber,
	}
}

func testCreateOrder(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "1000.00", 3)
	order.Notes = "rice and pulses"
	entry := creditEntry(order)

	require.NoError(t, store.CreateOrder(ctx, order, entry))
	require.NotEmpty(t, order.ID)
	require.Equal(t, int64(1), order.Version)
	require.NotZero(t, order.CreatedAt)
	require.Equal(t, order.ID, entry.OrderID)
	require.True(t, entry.BalanceAfter.Equal(decimal.RequireFromString("1000")), "balance after = %s", entry.BalanceAfter)

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, got.OrderNumber)
	require.Equal(t, "rice and pulses", got.Notes)
	require.Equal(t, models.OrderActive, got.Status)
	require.True(t, got.Principal.Equal(order.Principal))
	require.True(t, got.OrderDate.Equal(orderDate))
	require.Len(t, got.Installments, 3)

	want := []string{"333.33", "333.33", "333.34"}
	for i, inst := range got.Installments {
		require.Equal(t, i+1, inst.Sequence)
		require.Equal(t, order.ID, inst.OrderID)
		require.True(t, inst.AmountDue.Equal(decimal.RequireFromString(want[i])), "installment %d = %s", i+1, inst.AmountDue)
		require.True(t, inst.AmountPaid.IsZero())
		require.Equal(t, models.InstallmentPending, inst.Status)
		require.True(t, inst.DueDate.Equal(orderDate.AddDate(0, 0, 30*(i+1))))
	}

	entries, err := store.ListLedgerEntries(ctx, "shop-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntryCredit, entries[0].Kind)
	require.True(t, entries[0].BalanceAfter.Equal(decimal.RequireFromString("1000")))
}

func testGetOrderUnknown(t *testing.T, store storage.Store) {
	_, err := store.GetOrder(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testDuplicateOrderNumber(t *testing.T, store storage.Store) {
	ctx := context.Background()
	first := NewOrder(t, "shop-1", "100", 1)
	require.NoError(t, store.CreateOrder(ctx, first, creditEntry(first)))

	second := NewOrder(t, "shop-1", "200", 2)
	second.OrderNumber = first.OrderNumber
	err := store.CreateOrder(ctx, second, creditEntry(second))
	require.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = store.GetOrder(ctx, second.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := store.ListLedgerEntries(ctx, "shop-1")
	require.NoError(t, err)
	require.Len(t, entries, 1, "failed create must not leave a ledger entry")

	n, err := store.CountOrderNumbers(ctx, "ORD-20240101-")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func testApplyOrderChange(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "1000", 3)
	require.NoError(t, store.CreateOrder(ctx, order, creditEntry(order)))

	paidAt := orderDate.AddDate(0, 0, 10)
	insts, allocs, err := calculator.AllocatePayment(order.Installments, decimal.RequireFromString("400"), paidAt)
	require.NoError(t, err)

	next := order.Clone()
	next.Installments = insts
	payment := &models.Payment{
		OrderID:     order.ID,
		Amount:      decimal.RequireFromString("400"),
		ReceivedAt:  paidAt.Unix(),
		Reference:   "UPI-123",
		Allocations: allocs,
	}
	entry := &models.LedgerEntry{
		ShopOwnerID: order.ShopOwnerID,
		OrderID:     order.ID,
		Kind:        models.EntryDebit,
		Amount:      payment.Amount,
	}
	require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{
		Order:           next,
		ExpectedVersion: order.Version,
		Payment:         payment,
		Entry:           entry,
	}))
	require.Equal(t, int64(2), next.Version)
	require.NotEmpty(t, payment.ID)
	require.True(t, entry.BalanceAfter.Equal(decimal.RequireFromString("600")), "balance after = %s", entry.BalanceAfter)

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, models.InstallmentPaid, got.Installments[0].Status)
	require.Equal(t, paidAt.Unix(), got.Installments[0].PaidAt)
	require.False(t, got.Installments[0].Late)
	require.True(t, got.Installments[1].AmountPaid.Equal(decimal.RequireFromString("66.67")))
	require.Equal(t, models.InstallmentPending, got.Installments[1].Status)

	payments, err := store.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, "UPI-123", payments[0].Reference)
	require.True(t, payments[0].Amount.Equal(decimal.RequireFromString("400")))
	require.Len(t, payments[0].Allocations, 2)
	require.Equal(t, 1, payments[0].Allocations[0].Sequence)
	require.True(t, payments[0].Allocations[1].Amount.Equal(decimal.RequireFromString("66.67")))

	entries, err := store.ListLedgerEntries(ctx, order.ShopOwnerID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.EntryCredit, entries[0].Kind)
	require.Equal(t, models.EntryDebit, entries[1].Kind)
}

func testStaleVersion(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "500", 1)
	require.NoError(t, store.CreateOrder(ctx, order, creditEntry(order)))

	insts, allocs, err := calculator.AllocatePayment(order.Installments, decimal.RequireFromString("500"), orderDate)
	require.NoError(t, err)
	next := order.Clone()
	next.Installments = insts
	next.Status = models.OrderCompleted

	err = store.ApplyOrderChange(ctx, &storage.OrderChange{
		Order:           next,
		ExpectedVersion: order.Version + 5,
		Payment:         &models.Payment{OrderID: order.ID, Amount: decimal.RequireFromString("500"), Allocations: allocs},
	})
	require.True(t, errors.Is(err, storage.ErrVersionConflict), "got %v", err)

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderActive, got.Status)
	require.Equal(t, int64(1), got.Version)
	require.True(t, got.Installments[0].AmountPaid.IsZero())

	payments, err := store.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, payments)
}

func testCreateOrderRollback(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "300", 3)
	order.Installments[2].Sequence = 1

	require.Error(t, store.CreateOrder(ctx, order, creditEntry(order)))

	_, err := store.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := store.ListLedgerEntries(ctx, "shop-1")
	require.NoError(t, err)
	require.Empty(t, entries)

	n, err := store.CountOrderNumbers(ctx, "ORD-20240101-")
	require.NoError(t, err)
	require.Zero(t, n)
}

func testApplyOrderChangeRollback(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "900", 3)
	require.NoError(t, store.CreateOrder(ctx, order, creditEntry(order)))

	pay := func(current *models.CreditOrder, id, amount string) (*storage.OrderChange, []models.Allocation) {
		insts, allocs, err := calculator.AllocatePayment(current.Installments, decimal.RequireFromString(amount), orderDate.AddDate(0, 0, 5))
		require.NoError(t, err)
		next := current.Clone()
		next.Installments = insts
		return &storage.OrderChange{
			Order:           next,
			ExpectedVersion: current.Version,
			Payment: &models.Payment{
				ID:          id,
				OrderID:     order.ID,
				Amount:      decimal.RequireFromString(amount),
				Allocations: allocs,
			},
			Entry: &models.LedgerEntry{
				ShopOwnerID: order.ShopOwnerID,
				OrderID:     order.ID,
				Kind:        models.EntryDebit,
				Amount:      decimal.RequireFromString(amount),
			},
		}, allocs
	}

	first, _ := pay(order, "payment-1", "100")
	require.NoError(t, store.ApplyOrderChange(ctx, first))

	before, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)

	requireUnchanged := func(t *testing.T) {
		t.Helper()
		got, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, before.Version, got.Version)
		for i, inst := range got.Installments {
			require.Equal(t, before.Installments[i].Status, inst.Status)
			require.True(t, inst.AmountPaid.Equal(before.Installments[i].AmountPaid), "installment %d paid %s", inst.Sequence, inst.AmountPaid)
		}

		payments, err := store.ListPayments(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)

		entries, err := store.ListLedgerEntries(ctx, order.ShopOwnerID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.True(t, entries[1].BalanceAfter.Equal(decimal.RequireFromString("800")))
	}

	t.Run("duplicate payment id", func(t *testing.T) {
		change, _ := pay(before, "payment-1", "400")
		err := store.ApplyOrderChange(ctx, change)
		require.ErrorIs(t, err, storage.ErrDuplicate)
		requireUnchanged(t)
	})

	t.Run("failing allocation insert", func(t *testing.T) {
		change, allocs := pay(before, "payment-2", "400")
		require.Len(t, allocs, 2)
		change.Payment.Allocations[1].Sequence = allocs[0].Sequence
		require.Error(t, store.ApplyOrderChange(ctx, change))
		requireUnchanged(t)
	})
}

func testPaymentOrder(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "900", 3)
	require.NoError(t, store.CreateOrder(ctx, order, creditEntry(order)))

	// Same second, and ids that sort opposite to commit order.
	receivedAt := orderDate.AddDate(0, 0, 3)
	current := order
	for _, id := range []string{"payment-z", "payment-m", "payment-a"} {
		insts, allocs, err := calculator.AllocatePayment(current.Installments, decimal.RequireFromString("50"), receivedAt)
		require.NoError(t, err)
		next := current.Clone()
		next.Installments = insts
		require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{
			Order:           next,
			ExpectedVersion: current.Version,
			Payment: &models.Payment{
				ID:          id,
				OrderID:     order.ID,
				Amount:      decimal.RequireFromString("50"),
				ReceivedAt:  receivedAt.Unix(),
				Allocations: allocs,
			},
		}))
		current = next
	}

	payments, err := store.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	for i, id := range []string{"payment-z", "payment-m", "payment-a"} {
		require.Equal(t, id, payments[i].ID)
	}
}

// testGetOrderSnapshot writes amount_paid = version-1 on every change and
// checks that concurrent reads never see the two out of step.
func testGetOrderSnapshot(t *testing.T, store storage.Store) {
	ctx := context.Background()
	order := NewOrder(t, "shop-1", "1000", 1)
	require.NoError(t, store.CreateOrder(ctx, order, creditEntry(order)))

	const writes = 25
	done := make(chan struct{})
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		mismatch []string
		readErr  error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			got, err := store.GetOrder(ctx, order.ID)
			if err != nil {
				mu.Lock()
				readErr = err
				mu.Unlock()
				return
			}
			want := decimal.NewFromInt(got.Version - 1)
			if !got.Installments[0].AmountPaid.Equal(want) {
				mu.Lock()
				mismatch = append(mismatch, fmt.Sprintf("version %d paid %s", got.Version, got.Installments[0].AmountPaid))
				mu.Unlock()
			}
		}
	}()

	current := order
	for i := 0; i < writes; i++ {
		next := current.Clone()
		next.Installments[0].AmountPaid = decimal.NewFromInt(current.Version)
		require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{Order: next, ExpectedVersion: current.Version}))
		current = next
	}
	close(done)
	wg.Wait()

	require.NoError(t, readErr)
	require.Empty(t, mismatch)
	require.Equal(t, int64(writes+1), current.Version)
}

func testListOrders(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := NewOrder(t, "shop-a", "100", 1)
	b := NewOrder(t, "shop-b", "100", 1)
	c := NewOrder(t, "shop-a", "100", 1)
	c.WholesalerID = "wholesaler-2"
	for _, o := range []*models.CreditOrder{a, b, c} {
		require.NoError(t, store.CreateOrder(ctx, o, creditEntry(o)))
	}

	cancelled := c.Clone()
	cancelled.Status = models.OrderCancelled
	require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{Order: cancelled, ExpectedVersion: c.Version}))

	all, err := store.ListOrders(ctx, storage.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, o := range all {
		require.Len(t, o.Installments, 1)
	}

	shopA, err := store.ListOrders(ctx, storage.OrderFilter{ShopOwnerID: "shop-a"})
	require.NoError(t, err)
	require.Len(t, shopA, 2)

	active, err := store.ListOrders(ctx, storage.OrderFilter{ShopOwnerID: "shop-a", Status: models.OrderActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, a.ID, active[0].ID)

	w2, err := store.ListOrders(ctx, storage.OrderFilter{WholesalerID: "wholesaler-2"})
	require.NoError(t, err)
	require.Len(t, w2, 1)
	require.Equal(t, models.OrderCancelled, w2[0].Status)
}

func testExposure(t *testing.T, store storage.Store) {
	ctx := context.Background()
	open := NewOrder(t, "shop-x", "300", 3)
	closed := NewOrder(t, "shop-x", "1000", 1)
	other := NewOrder(t, "shop-y", "50", 1)
	for _, o := range []*models.CreditOrder{open, closed, other} {
		require.NoError(t, store.CreateOrder(ctx, o, creditEntry(o)))
	}

	cancelled := closed.Clone()
	cancelled.Status = models.OrderCancelled
	require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{Order: cancelled, ExpectedVersion: closed.Version}))

	waived := open.Clone()
	waived.Installments[2].Status = models.InstallmentWaived
	require.NoError(t, store.ApplyOrderChange(ctx, &storage.OrderChange{Order: waived, ExpectedVersion: open.Version}))

	exposure, err := store.ShopOwnerExposure(ctx, "shop-x")
	require.NoError(t, err)
	require.True(t, exposure.Equal(decimal.RequireFromString("200")), "exposure = %s", exposure)

	none, err := store.ShopOwnerExposure(ctx, "shop-unknown")
	require.NoError(t, err)
	require.True(t, none.IsZero())
}

func testParties(t *testing.T, store storage.Store) {
	ctx := context.Background()
	party := models.NewParty("ravi@example.com", "Ravi Stores", "hash", models.RoleShopOwner)
	require.NoError(t, store.CreateParty(ctx, party))

	dup := models.NewParty("ravi@example.com", "Other", "hash", models.RoleWholesaler)
	require.ErrorIs(t, store.CreateParty(ctx, dup), storage.ErrDuplicate)

	byEmail, err := store.GetPartyByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.Equal(t, party.ID, byEmail.ID)
	require.Equal(t, models.RoleShopOwner, byEmail.Role)
	require.True(t, byEmail.CreditLimit.IsZero())

	require.NoError(t, store.SetCreditLimit(ctx, party.ID, decimal.RequireFromString("25000.50")))
	byID, err := store.GetPartyByID(ctx, party.ID)
	require.NoError(t, err)
	require.True(t, byID.CreditLimit.Equal(decimal.RequireFromString("25000.50")))

	_, err = store.GetPartyByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetPartyByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, store.SetCreditLimit(ctx, uuid.NewString(), decimal.NewFromInt(1)), storage.ErrNotFound)
}
