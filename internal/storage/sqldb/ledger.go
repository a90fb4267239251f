package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/shopcredit/internal/models"
)

// insertEntry appends a ledger line. BalanceAfter is computed from the rows
// already written in tx, so it reflects the change being committed.
func (s *Store) insertEntry(ctx context.Context, tx *sql.Tx, e *models.LedgerEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	balance, err := s.exposure(ctx, tx, e.ShopOwnerID)
	if err != nil {
		return err
	}
	e.BalanceAfter = balance

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO ledger_entries (id, shop_owner_id, order_id, sequence, kind, amount, balance_after, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.ShopOwnerID, e.OrderID, e.Sequence, string(e.Kind),
		e.Amount.String(), e.BalanceAfter.String(), e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// ListLedgerEntries returns a shop owner's ledger in the order it was written.
func (s *Store) ListLedgerEntries(ctx context.Context, shopOwnerID string) ([]*models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, shop_owner_id, order_id, sequence, kind, amount, balance_after, description, created_at
		FROM ledger_entries WHERE shop_owner_id = ? ORDER BY entry_no`),
		shopOwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var (
			e    models.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.ShopOwnerID, &e.OrderID, &e.Sequence, &kind,
			&e.Amount, &e.BalanceAfter, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = models.EntryKind(kind)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
