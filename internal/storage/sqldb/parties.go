package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/storage"
)

const partyColumns = `id, email, display_name, role, password_hash, credit_limit, created_at, updated_at`

// CreateParty inserts a new party into the database.
func (s *Store) CreateParty(ctx context.Context, party *models.Party) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO parties (`+partyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		party.ID,
		party.Email,
		party.DisplayName,
		string(party.Role),
		party.PasswordHash,
		party.CreditLimit.String(),
		party.CreatedAt,
		party.UpdatedAt,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", storage.ErrDuplicate, party.Email)
		}
		return fmt.Errorf("failed to create party: %w", err)
	}
	return nil
}

// GetPartyByEmail retrieves a party by their email address.
func (s *Store) GetPartyByEmail(ctx context.Context, email string) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+partyColumns+` FROM parties WHERE email = ?`), email)
	party, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: party %s", storage.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party by email: %w", err)
	}
	return party, nil
}

// GetPartyByID retrieves a party by their ID.
func (s *Store) GetPartyByID(ctx context.Context, id string) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+partyColumns+` FROM parties WHERE id = ?`), id)
	party, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: party %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party by ID: %w", err)
	}
	return party, nil
}

// SetCreditLimit updates a party's credit limit.
func (s *Store) SetCreditLimit(ctx context.Context, partyID string, limit decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE parties SET credit_limit = ?, updated_at = ? WHERE id = ?`),
		limit.String(), time.Now().Unix(), partyID,
	)
	if err != nil {
		return fmt.Errorf("failed to set credit limit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: party %s", storage.ErrNotFound, partyID)
	}
	return nil
}

func scanParty(row rowScanner) (*models.Party, error) {
	var (
		party models.Party
		role  string
	)
	err := row.Scan(
		&party.ID,
		&party.Email,
		&party.DisplayName,
		&role,
		&party.PasswordHash,
		&party.CreditLimit,
		&party.CreatedAt,
		&party.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	party.Role = models.Role(role)
	return &party, nil
}
