// Package calculator holds the pure money math of the credit ledger:
// EMI schedule generation, FIFO payment allocation, outstanding balance
// and delinquency evaluation. Nothing here touches storage or the clock.
package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
)

// MaxInstallments caps the number of installments of one order.
const MaxInstallments = 36

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrPrecision         = errors.New("amount has more than two decimal places")
	ErrInstallmentCount  = errors.New("installment count out of range")
	ErrPrincipalTooSmall = errors.New("principal too small for installment count")
	ErrOverpayment       = errors.New("payment exceeds outstanding balance")
)

// MinorUnit is the smallest representable currency amount.
var MinorUnit = decimal.New(1, -2)

// ValidateAmount checks that amount is positive and carries at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Truncate(2)) {
		return ErrPrecision
	}
	return nil
}

// BuildSchedule splits principal into count installments due every intervalDays
// after orderDate. Each installment is principal/count truncated to the minor
// unit; the remainder goes to the last installment so the amounts sum exactly
// to principal.
//
// Example: 1000.00 over 3 gives 333.33, 333.33, 333.34.
func BuildSchedule(principal decimal.Decimal, count int, orderDate time.Time, intervalDays int) ([]models.Installment, error) {
	if err := ValidateAmount(principal); err != nil {
		return nil, fmt.Errorf("principal %s: %w", principal, err)
	}
	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInstallmentCount, count, MaxInstallments)
	}
	n := decimal.NewFromInt(int64(count))
	if principal.LessThan(MinorUnit.Mul(n)) {
		return nil, fmt.Errorf("%w: %s over %d", ErrPrincipalTooSmall, principal, count)
	}
	if intervalDays <= 0 {
		intervalDays = models.IntervalDays
	}

	base, _ := principal.QuoRem(n, 2)
	last := principal.Sub(base.Mul(decimal.NewFromInt(int64(count - 1))))

	start := models.Day(orderDate)
	installments := make([]models.Installment, count)
	for i := range installments {
		seq := i + 1
		amount := base
		if seq == count {
			amount = last
		}
		installments[i] = models.Installment{
			Sequence:   seq,
			DueDate:    start.AddDate(0, 0, intervalDays*seq),
			AmountDue:  amount,
			AmountPaid: decimal.Zero,
			Status:     models.InstallmentPending,
		}
	}
	return installments, nil
}

// Outstanding returns the unpaid balance of the non-waived installments.
func Outstanding(installments []models.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		if inst.Open() {
			total = total.Add(inst.Remaining())
		}
	}
	return total
}

// Settled reports whether every non-waived installment is paid.
func Settled(installments []models.Installment) bool {
	for _, inst := range installments {
		if inst.Open() {
			return false
		}
	}
	return true
}
