package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
// Transitions are one-directional: DRAFT -> POSTED -> REVERSED.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// EntryKind classifies a journal entry for numbering and reporting.
type EntryKind string

const (
	KindStandard  EntryKind = "STANDARD"
	KindAdjusting EntryKind = "ADJUSTING"
	KindOpening   EntryKind = "OPENING"
	KindReversing EntryKind = "REVERSING"
	KindClosing   EntryKind = "CLOSING"
)

// Prefix returns the entry-number prefix for the kind.
func (k EntryKind) Prefix() string {
	switch k {
	case KindAdjusting:
		return "ADJ"
	case KindOpening:
		return "OPN"
	case KindReversing:
		return "REV"
	case KindClosing:
		return "CLS"
	default:
		return "GEN"
	}
}

// MonthlyScoped reports whether the kind's number sequence restarts every
// month. Adjusting, opening and closing entries are rare enough that their
// sequences run per fiscal year instead.
func (k EntryKind) MonthlyScoped() bool {
	return k == KindStandard || k == KindReversing
}

// Valid reports whether the kind is one of the known values.
func (k EntryKind) Valid() bool {
	switch k {
	case KindStandard, KindAdjusting, KindOpening, KindReversing, KindClosing:
		return true
	}
	return false
}

// BalanceTolerance is the maximum permitted difference between total debits
// and total credits of a draft entry, in entry-currency units.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// JournalEntry represents a transaction header. Lines may be nil when the
// header was loaded without hydration.
type JournalEntry struct {
	EntryID     string      `json:"entryID"`
	OrgID       string      `json:"orgID"`
	PeriodID    string      `json:"periodID"`
	EntryNumber *string     `json:"entryNumber,omitempty"` // Assigned at post time
	EntryDate   time.Time   `json:"entryDate"`
	Kind        EntryKind   `json:"kind"`
	Status      EntryStatus `json:"status"`
	Description string      `json:"description"`

	// Reversal linkage. On a reversing entry ReversedEntryID points at the
	// source; on the source ReversingEntryID points back. At most one
	// ReversingEntryID is ever set per entry.
	ReversedEntryID  *string `json:"reversedEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`

	// CorrectedEntryID links a correction entry to the posted entry it
	// supplements. The corrected entry's status is untouched.
	CorrectedEntryID *string `json:"correctedEntryID,omitempty"`

	AutoReverseDate *time.Time `json:"autoReverseDate,omitempty"`
	PostedAt        *time.Time `json:"postedAt,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// IsDraft reports whether the entry is still mutable.
func (e JournalEntry) IsDraft() bool {
	return e.Status == Draft
}

// TotalDebit sums the entry-currency debit side of all lines.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the entry-currency credit side of all lines.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// BaseTotalDebit sums the base-currency debit side of all lines.
func (e JournalEntry) BaseTotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.BaseDebit)
	}
	return total
}

// BaseTotalCredit sums the base-currency credit side of all lines.
func (e JournalEntry) BaseTotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.BaseCredit)
	}
	return total
}

// IsBalanced reports whether total debits equal total credits within the
// rounding tolerance.
func (e JournalEntry) IsBalanced() bool {
	diff := e.TotalDebit().Sub(e.TotalCredit()).Abs()
	return diff.LessThanOrEqual(BalanceTolerance)
}

// JournalLine is one side of a transaction: exactly one of Debit/Credit is
// positive, the other zero. Base amounts are always computed from the
// exchange rate at line creation; they are never a fallback of the raw amount.
type JournalLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	LineNo       int             `json:"lineNo"` // 1-based, stable, preserved end-to-end
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"` // Rate to organization base currency
	BaseDebit    decimal.Decimal `json:"baseDebit"`
	BaseCredit   decimal.Decimal `json:"baseCredit"`
	Memo         string          `json:"memo,omitempty"`
}

// Side returns which ledger side the line posts to.
func (l JournalLine) Side() Side {
	if l.Debit.IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// Amount returns the entry-currency amount of the populated side.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// Validate checks the single-sided-line invariant and basic sanity.
func (l JournalLine) Validate() error {
	if l.AccountID == "" {
		return fmt.Errorf("line %d: account ID is required", l.LineNo)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return fmt.Errorf("line %d: amounts must not be negative", l.LineNo)
	}
	debitSet := l.Debit.IsPositive()
	creditSet := l.Credit.IsPositive()
	if debitSet == creditSet {
		return fmt.Errorf("line %d: exactly one of debit/credit must be positive", l.LineNo)
	}
	if !l.ExchangeRate.IsPositive() {
		return fmt.Errorf("line %d: exchange rate must be positive", l.LineNo)
	}
	return nil
}
