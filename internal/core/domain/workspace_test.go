package domain_test

import (
	"testing"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWorkingTrialBalanceLine_Recompute(t *testing.T) {
	tests := []struct {
		name       string
		line       domain.WorkingTrialBalanceLine
		wantDebit  string
		wantCredit string
	}{
		{
			name: "no adjustments reproduce the unadjusted pair",
			line: domain.WorkingTrialBalanceLine{
				UnadjustedDebit:  decimal.NewFromInt(500),
				UnadjustedCredit: decimal.Zero,
			},
			wantDebit:  "500",
			wantCredit: "0",
		},
		{
			name: "positive adjustment pushes toward debit",
			line: domain.WorkingTrialBalanceLine{
				UnadjustedDebit:  decimal.NewFromInt(500),
				UnadjustedCredit: decimal.Zero,
				Adjustments: []domain.Adjustment{
					{ColumnID: "col-1", Amount: decimal.NewFromInt(200)},
				},
			},
			wantDebit:  "700",
			wantCredit: "0",
		},
		{
			name: "negative adjustment flips the side past zero",
			line: domain.WorkingTrialBalanceLine{
				UnadjustedDebit:  decimal.NewFromInt(500),
				UnadjustedCredit: decimal.Zero,
				Adjustments: []domain.Adjustment{
					{ColumnID: "col-1", Amount: decimal.NewFromInt(-800)},
				},
			},
			wantDebit:  "0",
			wantCredit: "300",
		},
		{
			name: "multiple columns sum before the split",
			line: domain.WorkingTrialBalanceLine{
				UnadjustedDebit:  decimal.Zero,
				UnadjustedCredit: decimal.NewFromInt(100),
				Adjustments: []domain.Adjustment{
					{ColumnID: "col-1", Amount: decimal.NewFromInt(60)},
					{ColumnID: "col-2", Amount: decimal.NewFromInt(70)},
				},
			},
			wantDebit:  "30",
			wantCredit: "0",
		},
		{
			name: "adjustments cancel to a zero pair",
			line: domain.WorkingTrialBalanceLine{
				UnadjustedDebit:  decimal.NewFromInt(100),
				UnadjustedCredit: decimal.Zero,
				Adjustments: []domain.Adjustment{
					{ColumnID: "col-1", Amount: decimal.NewFromInt(-100)},
				},
			},
			wantDebit:  "0",
			wantCredit: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.line.Recompute()
			assert.True(t, tt.line.AdjustedDebit.Equal(decimal.RequireFromString(tt.wantDebit)),
				"adjusted debit: got %s, want %s", tt.line.AdjustedDebit.String(), tt.wantDebit)
			assert.True(t, tt.line.AdjustedCredit.Equal(decimal.RequireFromString(tt.wantCredit)),
				"adjusted credit: got %s, want %s", tt.line.AdjustedCredit.String(), tt.wantCredit)
			assert.False(t, tt.line.AdjustedDebit.IsPositive() && tt.line.AdjustedCredit.IsPositive(),
				"at most one adjusted side may be nonzero")
		})
	}
}

func TestWorkingTrialBalance_AdjustedTotals(t *testing.T) {
	workspace := domain.WorkingTrialBalance{
		Lines: []domain.WorkingTrialBalanceLine{
			{AdjustedDebit: decimal.NewFromInt(700), AdjustedCredit: decimal.Zero},
			{AdjustedDebit: decimal.Zero, AdjustedCredit: decimal.NewFromInt(500)},
			{AdjustedDebit: decimal.Zero, AdjustedCredit: decimal.NewFromInt(200)},
		},
	}

	debit, credit := workspace.AdjustedTotals()
	assert.True(t, debit.Equal(decimal.NewFromInt(700)))
	assert.True(t, credit.Equal(decimal.NewFromInt(700)))
}

func TestWorkingTrialBalance_IsLocked(t *testing.T) {
	assert.False(t, domain.WorkingTrialBalance{Status: domain.WorkspaceDraft}.IsLocked())
	assert.True(t, domain.WorkingTrialBalance{Status: domain.WorkspaceLocked}.IsLocked())
}
