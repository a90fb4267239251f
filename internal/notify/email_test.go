package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

type fakeParties struct {
	byID map[string]*models.Party
}

func (f *fakeParties) CreateParty(context.Context, *models.Party) error { return nil }

func (f *fakeParties) GetPartyByEmail(context.Context, string) (*models.Party, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeParties) GetPartyByID(_ context.Context, id string) (*models.Party, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeParties) SetCreditLimit(context.Context, string, decimal.Decimal) error { return nil }

type recordingSender struct {
	mu   sync.Mutex
	sent []*email.Email
	err  error
}

func (r *recordingSender) Send(msg *email.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testOrder(t *testing.T) *models.CreditOrder {
	t.Helper()
	orderDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	insts, err := calculator.BuildSchedule(decimal.NewFromInt(1000), 3, orderDate, models.IntervalDays)
	require.NoError(t, err)
	return &models.CreditOrder{
		ID:           "order-1",
		OrderNumber:  "ORD-20240101-0001",
		ShopOwnerID:  "shop-1",
		Principal:    decimal.NewFromInt(1000),
		OrderDate:    orderDate,
		Status:       models.OrderActive,
		Installments: insts,
	}
}

func TestOverdueMessage(t *testing.T) {
	order := testOrder(t)
	party := &models.Party{Email: "ravi@example.com", DisplayName: "Ravi Stores"}

	msg := OverdueMessage("ledger@example.com", party, order, order.Installments[:2])

	assert.Equal(t, "ledger@example.com", msg.From)
	assert.Equal(t, []string{"ravi@example.com"}, msg.To)
	assert.Equal(t, "Overdue installment on order ORD-20240101-0001", msg.Subject)
	body := string(msg.Text)
	assert.Contains(t, body, "Dear Ravi Stores,")
	assert.Contains(t, body, "#1  due 2024-01-31  amount due Rs. 333.33")
	assert.Contains(t, body, "#2  due 2024-03-01  amount due Rs. 333.33")
	assert.NotContains(t, body, "#3")
}

func TestDefaultMessage(t *testing.T) {
	order := testOrder(t)
	order.Installments[0].AmountPaid = order.Installments[0].AmountDue
	order.Installments[0].Status = models.InstallmentPaid
	party := &models.Party{Email: "ravi@example.com"}

	msg := DefaultMessage("ledger@example.com", party, order)

	assert.Equal(t, "Order ORD-20240101-0001 is in default", msg.Subject)
	body := string(msg.Text)
	assert.Contains(t, body, "Dear ravi@example.com,")
	assert.Contains(t, body, "Outstanding amount: Rs. 666.67")
}

func TestEmailNotifierDelivers(t *testing.T) {
	parties := &fakeParties{byID: map[string]*models.Party{
		"shop-1": {ID: "shop-1", Email: "ravi@example.com"},
	}}
	sender := &recordingSender{}
	n := NewEmailNotifier(parties, sender, "ledger@example.com")
	order := testOrder(t)

	n.InstallmentsOverdue(context.Background(), order, []int{1})
	n.OrderDefaulted(context.Background(), order)
	// Unknown sequences produce no message.
	n.InstallmentsOverdue(context.Background(), order, []int{9})
	n.Wait()

	require.Len(t, sender.sent, 2)
	subjects := []string{sender.sent[0].Subject, sender.sent[1].Subject}
	assert.ElementsMatch(t, []string{
		"Overdue installment on order ORD-20240101-0001",
		"Order ORD-20240101-0001 is in default",
	}, subjects)
}

func TestEmailNotifierSwallowsFailures(t *testing.T) {
	parties := &fakeParties{byID: map[string]*models.Party{}}
	sender := &recordingSender{err: errors.New("relay down")}
	n := NewEmailNotifier(parties, sender, "ledger@example.com")
	order := testOrder(t)

	// Missing party and failing relay are both logged and dropped.
	n.OrderDefaulted(context.Background(), order)
	n.Wait()
	parties.byID["shop-1"] = &models.Party{ID: "shop-1", Email: "ravi@example.com"}
	n.OrderDefaulted(context.Background(), order)
	n.Wait()

	assert.Empty(t, sender.sent)
}

func TestNewSMTPSender(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "2525"}).(smtpSender)
	assert.Equal(t, "smtp.example.com:2525", s.addr)
	assert.Nil(t, s.auth)

	s = NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p"}).(smtpSender)
	assert.NotNil(t, s.auth)
	assert.True(t, strings.HasSuffix(s.addr, ":587"))
}
