package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalanceResult is the point-in-time balance of one account, rendered
// as a (debit, credit) pair: a positive net sits on the account's normal side,
// a negative (abnormal) net on the opposite side. Never both nonzero.
type AccountBalanceResult struct {
	AccountID   string          `json:"accountID"`
	AsOf        time.Time       `json:"asOf"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Net         decimal.Decimal `json:"net"` // Signed toward the normal side
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceGroupBy selects the grouping mode of a trial balance.
type TrialBalanceGroupBy string

const (
	GroupByNone      TrialBalanceGroupBy = "NONE"
	GroupByClass     TrialBalanceGroupBy = "CLASS"
	GroupByHierarchy TrialBalanceGroupBy = "HIERARCHY"
)

// TrialBalanceRow is one line of a trial balance. Header rows are synthetic
// group subtotals whose debit/credit are the sum of their children.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID,omitempty"` // Empty on synthetic headers
	AccountCode string          `json:"accountCode,omitempty"`
	AccountName string          `json:"accountName"`
	Class       int             `json:"class"`
	IsHeader    bool            `json:"isHeader,omitempty"`
	Depth       int             `json:"depth,omitempty"`
	Warning     string          `json:"warning,omitempty"` // e.g. inactive account with nonzero balance
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport lists every matching account's balance at a date. For a
// self-consistent ledger TotalDebit always equals TotalCredit; the calculator
// refuses to produce a report when they differ.
type TrialBalanceReport struct {
	OrgID       string              `json:"orgID"`
	AsOf        time.Time           `json:"asOf"`
	GroupBy     TrialBalanceGroupBy `json:"groupBy"`
	Rows        []TrialBalanceRow   `json:"rows"`
	TotalDebit  decimal.Decimal     `json:"totalDebit"`
	TotalCredit decimal.Decimal     `json:"totalCredit"`
}

// ComparativePoint is one prior-date column of a comparative trial balance.
// Percent is nil when the prior balance is exactly zero (undefined).
type ComparativePoint struct {
	AsOf        time.Time        `json:"asOf"`
	Net         decimal.Decimal  `json:"net"`
	Variance    decimal.Decimal  `json:"variance"` // current - prior
	Percent     *decimal.Decimal `json:"percent,omitempty"`
	Significant bool             `json:"significant"`
}

// ComparativeRow is one account across the current date and each prior date.
type ComparativeRow struct {
	AccountID   string             `json:"accountID"`
	AccountCode string             `json:"accountCode"`
	AccountName string             `json:"accountName"`
	CurrentNet  decimal.Decimal    `json:"currentNet"`
	Priors      []ComparativePoint `json:"priors"`
}

// ComparativeTrialBalance holds per-account net balances at the current date
// and one or more prior dates with variance analysis.
type ComparativeTrialBalance struct {
	OrgID       string           `json:"orgID"`
	CurrentAsOf time.Time        `json:"currentAsOf"`
	PriorAsOf   []time.Time      `json:"priorAsOf"`
	Threshold   decimal.Decimal  `json:"threshold"` // |percent| >= threshold flags significance
	Rows        []ComparativeRow `json:"rows"`
}
