package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

func (s *Store) insertPayment(ctx context.Context, tx *sql.Tx, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.ReceivedAt == 0 {
		p.ReceivedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO payments (id, order_id, amount, received_at, reference)
		VALUES (?, ?, ?, ?, ?)`),
		p.ID, p.OrderID, p.Amount.String(), p.ReceivedAt, p.Reference,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: payment %s", storage.ErrDuplicate, p.ID)
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	for _, a := range p.Allocations {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO payment_allocations (payment_id, sequence, amount) VALUES (?, ?, ?)`),
			p.ID, a.Sequence, a.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}
	return nil
}

// ListPayments returns the payments recorded against an order in the order
// they were committed.
func (s *Store) ListPayments(ctx context.Context, orderID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, order_id, amount, received_at, reference
		FROM payments WHERE order_id = ? ORDER BY payment_no`),
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	var payments []*models.Payment
	byID := make(map[string]*models.Payment)
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.ReceivedAt, &p.Reference); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
		byID[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	if len(payments) == 0 {
		return payments, nil
	}

	allocRows, err := s.db.QueryContext(ctx, s.q(`
		SELECT a.payment_id, a.sequence, a.amount
		FROM payment_allocations a
		JOIN payments p ON p.id = a.payment_id
		WHERE p.order_id = ?
		ORDER BY a.payment_id, a.sequence`),
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer allocRows.Close()

	for allocRows.Next() {
		var (
			paymentID string
			a         models.Allocation
		)
		if err := allocRows.Scan(&paymentID, &a.Sequence, &a.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		if p, ok := byID[paymentID]; ok {
			p.Allocations = append(p.Allocations, a)
		}
	}
	if err := allocRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return payments, nil
}
