// Package notify delivers delinquency reminders to shop owners.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"

	"github.com/jordan-wright/email"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

const signature = "\nRegards,\nShopCredit"

// Sender delivers a composed message.
type Sender interface {
	Send(msg *email.Email) error
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type smtpSender struct {
	addr string
	auth smtp.Auth
}

func (s smtpSender) Send(msg *email.Email) error {
	return msg.Send(s.addr, s.auth)
}

// NewSMTPSender returns a Sender that relays through cfg.Host with PLAIN auth.
func NewSMTPSender(cfg SMTPConfig) Sender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return smtpSender{addr: cfg.Host + ":" + cfg.Port, auth: auth}
}

// EmailNotifier emails the shop owner when installments become overdue and
// when an order defaults. Delivery runs in the background; failures are
// logged and never reach the ledger.
type EmailNotifier struct {
	parties storage.PartyStore
	sender  Sender
	from    string
	wg      sync.WaitGroup
}

var _ ledger.Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(parties storage.PartyStore, sender Sender, from string) *EmailNotifier {
	return &EmailNotifier{parties: parties, sender: sender, from: from}
}

func (n *EmailNotifier) InstallmentsOverdue(ctx context.Context, order *models.CreditOrder, sequences []int) {
	overdue := make([]models.Installment, 0, len(sequences))
	for _, seq := range sequences {
		for _, inst := range order.Installments {
			if inst.Sequence == seq {
				overdue = append(overdue, inst)
			}
		}
	}
	if len(overdue) == 0 {
		return
	}
	n.dispatch(ctx, order.ShopOwnerID, func(to *models.Party) *email.Email {
		return OverdueMessage(n.from, to, order, overdue)
	})
}

func (n *EmailNotifier) OrderDefaulted(ctx context.Context, order *models.CreditOrder) {
	n.dispatch(ctx, order.ShopOwnerID, func(to *models.Party) *email.Email {
		return DefaultMessage(n.from, to, order)
	})
}

// Wait blocks until all pending deliveries finish.
func (n *EmailNotifier) Wait() {
	n.wg.Wait()
}

func (n *EmailNotifier) dispatch(ctx context.Context, shopOwnerID string, build func(*models.Party) *email.Email) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		party, err := n.parties.GetPartyByID(ctx, shopOwnerID)
		if err != nil {
			slog.Warn("Skipping reminder, shop owner not found",
				"shop_owner_id", shopOwnerID,
				"error", err,
			)
			return
		}

		msg := build(party)
		if err := n.sender.Send(msg); err != nil {
			slog.Error("Failed to send reminder",
				"to", party.Email,
				"subject", msg.Subject,
				"error", err,
			)
			return
		}
		slog.Info("Reminder sent", "to", party.Email, "subject", msg.Subject)
	}()
}

// OverdueMessage composes the reminder for newly overdue installments.
func OverdueMessage(from string, to *models.Party, order *models.CreditOrder, overdue []models.Installment) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to.Email}
	e.Subject = fmt.Sprintf("Overdue installment on order %s", order.OrderNumber)

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", greetingName(to))
	fmt.Fprintf(&body, "The following installments of order %s are overdue:\n\n", order.OrderNumber)
	for _, inst := range overdue {
		fmt.Fprintf(&body, "  #%d  due %s  amount due Rs. %s\n",
			inst.Sequence, inst.DueDate.Format(models.DateLayout), inst.Remaining().StringFixed(2))
	}
	body.WriteString("\nPlease pay as soon as possible to keep your credit line in good standing.\n")
	body.WriteString(signature)
	e.Text = []byte(body.String())
	return e
}

// DefaultMessage composes the notice sent when an order defaults.
func DefaultMessage(from string, to *models.Party, order *models.CreditOrder) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to.Email}
	e.Subject = fmt.Sprintf("Order %s is in default", order.OrderNumber)

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", greetingName(to))
	fmt.Fprintf(&body, "Order %s has been marked as defaulted after repeated missed installments.\n", order.OrderNumber)
	fmt.Fprintf(&body, "Outstanding amount: Rs. %s\n", calculator.Outstanding(order.Installments).StringFixed(2))
	body.WriteString("Payments are still accepted. Please contact your wholesaler to settle the balance.\n")
	body.WriteString(signature)
	e.Text = []byte(body.String())
	return e
}

func greetingName(p *models.Party) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}
