package domain_test

import (
	"testing"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEntryKind_Prefix(t *testing.T) {
	tests := []struct {
		kind domain.EntryKind
		want string
	}{
		{domain.KindStandard, "GEN"},
		{domain.KindAdjusting, "ADJ"},
		{domain.KindOpening, "OPN"},
		{domain.KindReversing, "REV"},
		{domain.KindClosing, "CLS"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Prefix())
	}
}

func TestEntryKind_MonthlyScoped(t *testing.T) {
	assert.True(t, domain.KindStandard.MonthlyScoped())
	assert.True(t, domain.KindReversing.MonthlyScoped())
	assert.False(t, domain.KindAdjusting.MonthlyScoped())
	assert.False(t, domain.KindOpening.MonthlyScoped())
	assert.False(t, domain.KindClosing.MonthlyScoped())
}

func TestEntryKind_Valid(t *testing.T) {
	assert.True(t, domain.KindStandard.Valid())
	assert.True(t, domain.KindClosing.Valid())
	assert.False(t, domain.EntryKind("BOGUS").Valid())
	assert.False(t, domain.EntryKind("").Valid())
}

func TestFormatEntryNumber(t *testing.T) {
	date := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	monthly := domain.SequenceKeyFor("org-1", domain.KindStandard, date)
	assert.Equal(t, "GEN", monthly.Prefix)
	assert.Equal(t, 2024, monthly.Year)
	assert.Equal(t, 1, monthly.Month)
	assert.Equal(t, "GEN-2024-01-000042", domain.FormatEntryNumber(monthly, 42))

	yearly := domain.SequenceKeyFor("org-1", domain.KindAdjusting, date)
	assert.Equal(t, "ADJ", yearly.Prefix)
	assert.Equal(t, 0, yearly.Month)
	assert.Equal(t, "ADJ-2024-000007", domain.FormatEntryNumber(yearly, 7))
}

func TestJournalEntry_IsBalanced(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.JournalLine
		want  bool
	}{
		{
			name: "balanced entry",
			lines: []domain.JournalLine{
				{Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
				{Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
			},
			want: true,
		},
		{
			name: "one cent off is within tolerance",
			lines: []domain.JournalLine{
				{Debit: decimal.NewFromFloat(33.34), Credit: decimal.Zero},
				{Debit: decimal.Zero, Credit: decimal.NewFromFloat(33.33)},
			},
			want: true,
		},
		{
			name: "two cents off is unbalanced",
			lines: []domain.JournalLine{
				{Debit: decimal.NewFromFloat(33.35), Credit: decimal.Zero},
				{Debit: decimal.Zero, Credit: decimal.NewFromFloat(33.33)},
			},
			want: false,
		},
		{
			name:  "empty entry is trivially balanced",
			lines: nil,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.JournalEntry{Lines: tt.lines}
			assert.Equal(t, tt.want, entry.IsBalanced())
		})
	}
}

func TestJournalLine_SideAndAmount(t *testing.T) {
	debitLine := domain.JournalLine{Debit: decimal.NewFromInt(75), Credit: decimal.Zero}
	assert.Equal(t, domain.SideDebit, debitLine.Side())
	assert.True(t, debitLine.Amount().Equal(decimal.NewFromInt(75)))

	creditLine := domain.JournalLine{Debit: decimal.Zero, Credit: decimal.NewFromInt(75)}
	assert.Equal(t, domain.SideCredit, creditLine.Side())
	assert.True(t, creditLine.Amount().Equal(decimal.NewFromInt(75)))
}

func TestJournalLine_Validate(t *testing.T) {
	valid := domain.JournalLine{
		LineNo:       1,
		AccountID:    "acc-1",
		Debit:        decimal.NewFromInt(100),
		Credit:       decimal.Zero,
		ExchangeRate: decimal.NewFromInt(1),
	}

	tests := []struct {
		name    string
		mutate  func(l *domain.JournalLine)
		wantErr string
	}{
		{"valid line", func(l *domain.JournalLine) {}, ""},
		{"missing account", func(l *domain.JournalLine) { l.AccountID = "" }, "account ID is required"},
		{"negative debit", func(l *domain.JournalLine) { l.Debit = decimal.NewFromInt(-5) }, "must not be negative"},
		{"both sides set", func(l *domain.JournalLine) { l.Credit = decimal.NewFromInt(1) }, "exactly one of debit/credit"},
		{"neither side set", func(l *domain.JournalLine) { l.Debit = decimal.Zero }, "exactly one of debit/credit"},
		{"zero exchange rate", func(l *domain.JournalLine) { l.ExchangeRate = decimal.Zero }, "exchange rate must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, domain.SideCredit, domain.SideDebit.Opposite())
	assert.Equal(t, domain.SideDebit, domain.SideCredit.Opposite())
}
