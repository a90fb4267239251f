package calculator

import (
	"testing"
	"time"

	"github.com/mmynk/shopcredit/internal/models"
)

func TestEvaluateDelinquency(t *testing.T) {
	// Due dates: 2024-01-31, 2024-03-01, 2024-03-31.
	tests := []struct {
		name        string
		prepare     func(insts []models.Installment)
		asOf        time.Time
		policy      DelinquencyPolicy
		wantNew     []int
		wantOverdue int
		wantDefault bool
	}{
		{
			name:   "nothing due yet",
			asOf:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			policy: DefaultPolicy(),
		},
		{
			name:   "due today is not overdue",
			asOf:   time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC),
			policy: DefaultPolicy(),
		},
		{
			name:        "one missed cycle is tolerated",
			asOf:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			policy:      DefaultPolicy(),
			wantNew:     []int{1},
			wantOverdue: 1,
		},
		{
			name:        "two missed cycles default",
			asOf:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			policy:      DelinquencyPolicy{MaxOverdue: 1},
			wantNew:     []int{1, 2},
			wantOverdue: 2,
			wantDefault: true,
		},
		{
			name:        "grace period exceeded",
			asOf:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			policy:      DelinquencyPolicy{MaxOverdue: 5, GraceDays: 30},
			wantNew:     []int{1, 2},
			wantOverdue: 2,
			wantDefault: true,
		},
		{
			name:        "within grace period",
			asOf:        time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			policy:      DelinquencyPolicy{MaxOverdue: 5, GraceDays: 30},
			wantNew:     []int{1},
			wantOverdue: 1,
		},
		{
			name: "paid and waived are untouched",
			prepare: func(insts []models.Installment) {
				insts[0].Status = models.InstallmentPaid
				insts[0].AmountPaid = insts[0].AmountDue
				insts[1].Status = models.InstallmentWaived
			},
			asOf:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			policy:      DelinquencyPolicy{MaxOverdue: 1},
			wantNew:     []int{3},
			wantOverdue: 1,
		},
		{
			name: "already overdue counts but is not new",
			prepare: func(insts []models.Installment) {
				insts[0].Status = models.InstallmentOverdue
			},
			asOf:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			policy:      DelinquencyPolicy{MaxOverdue: 1},
			wantNew:     []int{2},
			wantOverdue: 2,
			wantDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := schedule(t, "1000", 3)
			if tt.prepare != nil {
				tt.prepare(insts)
			}

			got := EvaluateDelinquency(insts, tt.asOf, tt.policy)
			if len(got.NewlyOverdue) != len(tt.wantNew) {
				t.Fatalf("newly overdue = %v, want %v", got.NewlyOverdue, tt.wantNew)
			}
			for i := range tt.wantNew {
				if got.NewlyOverdue[i] != tt.wantNew[i] {
					t.Errorf("newly overdue = %v, want %v", got.NewlyOverdue, tt.wantNew)
				}
			}
			if got.Overdue != tt.wantOverdue {
				t.Errorf("overdue = %d, want %d", got.Overdue, tt.wantOverdue)
			}
			if got.Default != tt.wantDefault {
				t.Errorf("default = %v, want %v", got.Default, tt.wantDefault)
			}
		})
	}
}

func TestEvaluateDelinquencyIdempotent(t *testing.T) {
	insts := schedule(t, "1000", 3)
	asOf := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	first := EvaluateDelinquency(insts, asOf, DefaultPolicy())
	second := EvaluateDelinquency(first.Installments, asOf, DefaultPolicy())

	if len(second.NewlyOverdue) != 0 {
		t.Errorf("second run marked %v overdue again", second.NewlyOverdue)
	}
	if second.Overdue != first.Overdue || second.Default != first.Default {
		t.Errorf("second run differs: %+v vs %+v", second, first)
	}
	if insts[0].Status != models.InstallmentPending {
		t.Error("input installments modified")
	}
}
