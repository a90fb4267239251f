package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/storage"
)

var (
	ErrInvalidOrder   = errors.New("invalid order")
	ErrInvalidPayment = errors.New("invalid payment")
	// ErrOverpayment is shared with the calculator so either can be matched.
	ErrOverpayment         = calculator.ErrOverpayment
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrent modification, reload and retry")
	ErrOrderClosed         = errors.New("order is closed")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrInvalidTransition   = errors.New("invalid state transition")
)

// storeError translates storage sentinels into ledger errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}
