package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerPosting is the immutable fact of a posted journal line. Rows are
// append-only: corrections are made by posting new entries, never by editing
// history.
type LedgerPosting struct {
	PostingID  string          `json:"postingID"`
	OrgID      string          `json:"orgID"`
	EntryID    string          `json:"entryID"`
	LineID     string          `json:"lineID"`
	LineNo     int             `json:"lineNo"`
	AccountID  string          `json:"accountID"`
	PeriodID   string          `json:"periodID"`
	Date       time.Time       `json:"date"`
	BaseDebit  decimal.Decimal `json:"baseDebit"`
	BaseCredit decimal.Decimal `json:"baseCredit"`
	PostedAt   time.Time       `json:"postedAt"`
}

// AccountPeriodBalance is the cached roll-up of one account inside one fiscal
// period. opening(period N) equals closing(period N-1) for the same account;
// closing is maintained incrementally at posting time, never re-derived from a
// snapshot.
type AccountPeriodBalance struct {
	OrgID           string          `json:"orgID"`
	AccountID       string          `json:"accountID"`
	PeriodID        string          `json:"periodID"`
	NormalSide      Side            `json:"normalSide"`
	Opening         decimal.Decimal `json:"opening"`
	DebitMovements  decimal.Decimal `json:"debitMovements"`
	CreditMovements decimal.Decimal `json:"creditMovements"`
	Closing         decimal.Decimal `json:"closing"`
}

// ComputeClosing derives the closing balance from opening and movements under
// the account's sign convention: movements toward the normal side increase the
// balance.
func (b AccountPeriodBalance) ComputeClosing() decimal.Decimal {
	if b.NormalSide == SideCredit {
		return b.Opening.Add(b.CreditMovements).Sub(b.DebitMovements)
	}
	return b.Opening.Add(b.DebitMovements).Sub(b.CreditMovements)
}

// DebitCredit is a raw (total debit, total credit) pair aggregated from
// ledger postings.
type DebitCredit struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// BalanceDelta accumulates the movement an entry applies to one
// account/period cell. The materializer emits one delta per touched cell.
type BalanceDelta struct {
	AccountID  string
	PeriodID   string
	NormalSide Side
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}
