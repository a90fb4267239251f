package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
)

// AllocatePayment applies amount to the open installments in sequence order,
// cascading any remainder to the next one. It returns the updated installments
// and one allocation per installment touched. The input slice is not modified.
//
// An installment becomes paid when its applied total equals its amount due
// exactly; it is flagged late when that happens after its due date.
// Amounts above the outstanding balance fail with ErrOverpayment.
func AllocatePayment(installments []models.Installment, amount decimal.Decimal, paidAt time.Time) ([]models.Installment, []models.Allocation, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	outstanding := Outstanding(installments)
	if amount.GreaterThan(outstanding) {
		return nil, nil, fmt.Errorf("%w: paying %s, outstanding %s", ErrOverpayment, amount, outstanding)
	}

	updated := append([]models.Installment(nil), installments...)
	sort.Slice(updated, func(i, j int) bool { return updated[i].Sequence < updated[j].Sequence })

	paidDay := models.Day(paidAt)
	left := amount
	var allocations []models.Allocation
	for i := range updated {
		if !left.IsPositive() {
			break
		}
		inst := &updated[i]
		if !inst.Open() {
			continue
		}

		applied := decimal.Min(left, inst.Remaining())
		inst.AmountPaid = inst.AmountPaid.Add(applied)
		left = left.Sub(applied)
		allocations = append(allocations, models.Allocation{Sequence: inst.Sequence, Amount: applied})

		if inst.AmountPaid.Equal(inst.AmountDue) {
			inst.Status = models.InstallmentPaid
			inst.PaidAt = paidAt.Unix()
			inst.Late = paidDay.After(inst.DueDate)
		}
	}
	return updated, allocations, nil
}
