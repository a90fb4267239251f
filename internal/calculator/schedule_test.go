package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shopcredit/internal/models"
)

var orderDate = time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildSchedule(t *testing.T) {
	tests := []struct {
		name         string
		principal    string
		count        int
		wantErr      error
		validateFunc func(t *testing.T, got []models.Installment)
	}{
		{
			name:      "three-way split puts remainder on last",
			principal: "1000.00",
			count:     3,
			validateFunc: func(t *testing.T, got []models.Installment) {
				want := []string{"333.33", "333.33", "333.34"}
				for i, w := range want {
					if !got[i].AmountDue.Equal(dec(w)) {
						t.Errorf("installment %d: amount = %s, want %s", i+1, got[i].AmountDue, w)
					}
				}
				wantDue := []string{"2024-01-31", "2024-03-01", "2024-03-31"}
				for i, w := range wantDue {
					if d := got[i].DueDate.Format(models.DateLayout); d != w {
						t.Errorf("installment %d: due = %s, want %s", i+1, d, w)
					}
				}
			},
		},
		{
			name:      "lump sum",
			principal: "500",
			count:     1,
			validateFunc: func(t *testing.T, got []models.Installment) {
				if len(got) != 1 || !got[0].AmountDue.Equal(dec("500")) {
					t.Fatalf("unexpected schedule: %+v", got)
				}
				if got[0].Sequence != 1 || got[0].Status != models.InstallmentPending {
					t.Errorf("unexpected installment: %+v", got[0])
				}
			},
		},
		{
			name:      "minimum principal for count",
			principal: "0.03",
			count:     3,
			validateFunc: func(t *testing.T, got []models.Installment) {
				for _, inst := range got {
					if !inst.AmountDue.Equal(dec("0.01")) {
						t.Errorf("installment %d: amount = %s, want 0.01", inst.Sequence, inst.AmountDue)
					}
				}
			},
		},
		{
			name:      "remainder of several cents",
			principal: "100.00",
			count:     7,
			validateFunc: func(t *testing.T, got []models.Installment) {
				if !got[0].AmountDue.Equal(dec("14.28")) {
					t.Errorf("first = %s, want 14.28", got[0].AmountDue)
				}
				if !got[6].AmountDue.Equal(dec("14.32")) {
					t.Errorf("last = %s, want 14.32", got[6].AmountDue)
				}
			},
		},
		{name: "zero principal", principal: "0", count: 1, wantErr: ErrNonPositiveAmount},
		{name: "negative principal", principal: "-10", count: 1, wantErr: ErrNonPositiveAmount},
		{name: "sub-cent principal", principal: "10.005", count: 1, wantErr: ErrPrecision},
		{name: "zero count", principal: "100", count: 0, wantErr: ErrInstallmentCount},
		{name: "too many installments", principal: "100", count: 37, wantErr: ErrInstallmentCount},
		{name: "principal below one cent each", principal: "0.02", count: 3, wantErr: ErrPrincipalTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSchedule(dec(tt.principal), tt.count, orderDate, models.IntervalDays)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("got %d installments, want %d", len(got), tt.count)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, got)
			}
		})
	}
}

func TestBuildScheduleInvariants(t *testing.T) {
	principals := []string{"0.97", "1", "99.99", "1000", "1234.56", "250000.01"}
	for _, p := range principals {
		for count := 1; count <= MaxInstallments; count++ {
			principal := dec(p)
			if principal.LessThan(MinorUnit.Mul(decimal.NewFromInt(int64(count)))) {
				continue
			}
			got, err := BuildSchedule(principal, count, orderDate, models.IntervalDays)
			if err != nil {
				t.Fatalf("%s/%d: %v", p, count, err)
			}

			sum := decimal.Zero
			for i, inst := range got {
				sum = sum.Add(inst.AmountDue)
				if !inst.AmountDue.IsPositive() {
					t.Errorf("%s/%d: installment %d not positive", p, count, inst.Sequence)
				}
				if i > 0 && !inst.DueDate.After(got[i-1].DueDate) {
					t.Errorf("%s/%d: due dates not increasing at %d", p, count, inst.Sequence)
				}
			}
			if !sum.Equal(principal) {
				t.Errorf("%s/%d: sum %s != principal", p, count, sum)
			}
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(dec("0.01")); err != nil {
		t.Errorf("0.01: unexpected error %v", err)
	}
	if err := ValidateAmount(dec("12.50")); err != nil {
		t.Errorf("12.50: unexpected error %v", err)
	}
	if err := ValidateAmount(dec("12.501")); !errors.Is(err, ErrPrecision) {
		t.Errorf("12.501: expected ErrPrecision, got %v", err)
	}
	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("0: expected ErrNonPositiveAmount, got %v", err)
	}
}
