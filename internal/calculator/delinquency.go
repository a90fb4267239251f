package calculator

import (
	"time"

	"github.com/mmynk/shopcredit/internal/models"
)

// DelinquencyPolicy decides when overdue installments default an order.
type DelinquencyPolicy struct {
	// MaxOverdue is the number of overdue installments tolerated.
	// One more than this defaults the order.
	MaxOverdue int

	// GraceDays defaults the order once its oldest overdue installment is
	// more than this many days past due. Zero disables the check.
	GraceDays int
}

// DefaultPolicy tolerates one missed cycle and 30 days of lateness.
func DefaultPolicy() DelinquencyPolicy {
	return DelinquencyPolicy{MaxOverdue: 1, GraceDays: 30}
}

// Delinquency is the outcome of evaluating an order's installments on a date.
type Delinquency struct {
	Installments []models.Installment

	// NewlyOverdue lists the sequences moved from pending to overdue.
	NewlyOverdue []int

	// Overdue is the number of overdue installments after evaluation.
	Overdue int

	// Default is true when the policy threshold is exceeded.
	Default bool
}

// EvaluateDelinquency marks pending installments whose due date is before asOf
// (calendar day granularity) as overdue and applies the policy. Paid and waived
// installments are never touched, so re-running with the same date changes nothing.
func EvaluateDelinquency(installments []models.Installment, asOf time.Time, policy DelinquencyPolicy) Delinquency {
	day := models.Day(asOf)
	result := Delinquency{Installments: append([]models.Installment(nil), installments...)}

	var oldest time.Time
	for i := range result.Installments {
		inst := &result.Installments[i]
		if inst.Status == models.InstallmentPending && inst.DueDate.Before(day) {
			inst.Status = models.InstallmentOverdue
			result.NewlyOverdue = append(result.NewlyOverdue, inst.Sequence)
		}
		if inst.Status != models.InstallmentOverdue {
			continue
		}
		result.Overdue++
		if oldest.IsZero() || inst.DueDate.Before(oldest) {
			oldest = inst.DueDate
		}
	}

	if result.Overdue > policy.MaxOverdue {
		result.Default = true
	}
	if policy.GraceDays > 0 && !oldest.IsZero() && DaysBetween(oldest, day) > policy.GraceDays {
		result.Default = true
	}
	return result
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(models.Day(b).Sub(models.Day(a)).Hours() / 24)
}
