package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

const orderColumns = `id, order_number, wholesaler_id, shop_owner_id, principal, order_date,
	installment_count, interval_days, status, notes, version, created_at, updated_at`

// CreateOrder persists a new order with its installments and opening ledger entry.
func (s *Store) CreateOrder(ctx context.Context, order *models.CreditOrder, entry *models.LedgerEntry) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if order.CreatedAt == 0 {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	order.Version = 1

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO credit_orders (`+orderColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			order.ID, order.OrderNumber, order.WholesalerID, order.ShopOwnerID,
			order.Principal.String(), order.OrderDate.Format(models.DateLayout),
			order.InstallmentCount, order.IntervalDays, string(order.Status), order.Notes,
			order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if s.dialect.IsUniqueViolation(err) {
				return fmt.Errorf("%w: order number %s", storage.ErrDuplicate, order.OrderNumber)
			}
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Installments {
			inst := &order.Installments[i]
			inst.OrderID = order.ID
			_, err = tx.ExecContext(ctx, s.q(`
				INSERT INTO installments (order_id, sequence, due_date, amount_due, amount_paid, status, paid_at, late)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				inst.OrderID, inst.Sequence, inst.DueDate.Format(models.DateLayout),
				inst.AmountDue.String(), inst.AmountPaid.String(), string(inst.Status), inst.PaidAt, inst.Late,
			)
			if err != nil {
				return fmt.Errorf("failed to insert installment %d: %w", inst.Sequence, err)
			}
		}

		if entry != nil {
			entry.OrderID = order.ID
			if err := s.insertEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrder retrieves an order by ID, including its installments. Both are
// read in one transaction so the version matches the installment states.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.CreditOrder, error) {
	var order *models.CreditOrder
	err := s.withReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.getOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) getOrder(ctx context.Context, q queryer, orderID string) (*models.CreditOrder, error) {
	row := q.QueryRowContext(ctx, s.q(`SELECT `+orderColumns+` FROM credit_orders WHERE id = ?`), orderID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", storage.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.Installments, err = s.loadInstallments(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the orders matching filter, newest first.
func (s *Store) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]*models.CreditOrder, error) {
	var (
		where []string
		args  []any
	)
	if filter.ShopOwnerID != "" {
		where = append(where, "shop_owner_id = ?")
		args = append(args, filter.ShopOwnerID)
	}
	if filter.WholesalerID != "" {
		where = append(where, "wholesaler_id = ?")
		args = append(args, filter.WholesalerID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + orderColumns + ` FROM credit_orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, order_number DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*models.CreditOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	// Installments are loaded after the order cursor is closed: the SQLite
	// backend runs on a single connection.
	for _, order := range orders {
		order.Installments, err = s.loadInstallments(ctx, s.db, order.ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// CountOrderNumbers counts orders whose number starts with prefix.
func (s *Store) CountOrderNumbers(ctx context.Context, prefix string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM credit_orders WHERE order_number LIKE ?`),
		prefix+"%",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// ApplyOrderChange writes an order mutation if the stored version still matches.
func (s *Store) ApplyOrderChange(ctx context.Context, change *storage.OrderChange) error {
	order := change.Order
	now := time.Now().Unix()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE credit_orders SET status = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`),
			string(order.Status), now, order.ID, change.ExpectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: order %s at version %d", storage.ErrVersionConflict, order.ID, change.ExpectedVersion)
		}

		for _, inst := range order.Installments {
			_, err := tx.ExecContext(ctx, s.q(`
				UPDATE installments SET amount_paid = ?, status = ?, paid_at = ?, late = ?
				WHERE order_id = ? AND sequence = ?`),
				inst.AmountPaid.String(), string(inst.Status), inst.PaidAt, inst.Late,
				order.ID, inst.Sequence,
			)
			if err != nil {
				return fmt.Errorf("failed to update installment %d: %w", inst.Sequence, err)
			}
		}

		if change.Payment != nil {
			if err := s.insertPayment(ctx, tx, change.Payment); err != nil {
				return err
			}
		}
		if change.Entry != nil {
			if err := s.insertEntry(ctx, tx, change.Entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.Version = change.ExpectedVersion + 1
	order.UpdatedAt = now
	return nil
}

// ShopOwnerExposure sums the open balance over active and defaulted orders.
func (s *Store) ShopOwnerExposure(ctx context.Context, shopOwnerID string) (decimal.Decimal, error) {
	return s.exposure(ctx, s.db, shopOwnerID)
}

func (s *Store) exposure(ctx context.Context, q queryer, shopOwnerID string) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT i.amount_due, i.amount_paid
		FROM installments i
		JOIN credit_orders o ON o.id = i.order_id
		WHERE o.shop_owner_id = ?
		  AND o.status IN ('active', 'defaulted')
		  AND i.status IN ('pending', 'overdue')`),
		shopOwnerID,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query exposure: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var due, paid decimal.Decimal
		if err := rows.Scan(&due, &paid); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan exposure: %w", err)
		}
		total = total.Add(due.Sub(paid))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate exposure: %w", err)
	}
	return total, nil
}

func (s *Store) loadInstallments(ctx context.Context, q queryer, orderID string) ([]models.Installment, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT order_id, sequence, due_date, amount_due, amount_paid, status, paid_at, late
		FROM installments WHERE order_id = ? ORDER BY sequence`),
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get installments: %w", err)
	}
	defer rows.Close()

	var installments []models.Installment
	for rows.Next() {
		var (
			inst    models.Installment
			dueDate string
			status  string
		)
		if err := rows.Scan(&inst.OrderID, &inst.Sequence, &dueDate, &inst.AmountDue,
			&inst.AmountPaid, &status, &inst.PaidAt, &inst.Late); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		inst.Status = models.InstallmentStatus(status)
		if inst.DueDate, err = models.ParseDay(dueDate); err != nil {
			return nil, fmt.Errorf("invalid due date %q: %w", dueDate, err)
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}
	return installments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.CreditOrder, error) {
	var (
		order     models.CreditOrder
		orderDate string
		status    string
	)
	err := row.Scan(&order.ID, &order.OrderNumber, &order.WholesalerID, &order.ShopOwnerID,
		&order.Principal, &orderDate, &order.InstallmentCount, &order.IntervalDays,
		&status, &order.Notes, &order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	if order.OrderDate, err = models.ParseDay(orderDate); err != nil {
		return nil, fmt.Errorf("invalid order date %q: %w", orderDate, err)
	}
	return &order, nil
}
