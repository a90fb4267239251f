package risk

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/storage"
)

// StoredLimits reads the credit limit kept on the shop owner's party record.
// A zero limit means none was set.
type StoredLimits struct {
	parties storage.PartyStore
}

var _ ledger.CreditLimitProvider = (*StoredLimits)(nil)

func NewStoredLimits(parties storage.PartyStore) *StoredLimits {
	return &StoredLimits{parties: parties}
}

func (s *StoredLimits) CreditLimit(ctx context.Context, shopOwnerID string) (decimal.Decimal, bool, error) {
	party, err := s.parties.GetPartyByID(ctx, shopOwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	if !party.CreditLimit.IsPositive() {
		return decimal.Zero, false, nil
	}
	return party.CreditLimit, true, nil
}
