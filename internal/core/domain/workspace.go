package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkspaceStatus indicates whether a working trial balance still accepts
// adjustments.
type WorkspaceStatus string

const (
	WorkspaceDraft  WorkspaceStatus = "DRAFT"
	WorkspaceLocked WorkspaceStatus = "LOCKED"
)

// AdjustmentColumnKind classifies an adjustment overlay column.
type AdjustmentColumnKind string

const (
	ColumnAdjusting AdjustmentColumnKind = "ADJUSTING"
	ColumnReclass   AdjustmentColumnKind = "RECLASS"
	ColumnProposed  AdjustmentColumnKind = "PROPOSED"
)

// AdjustmentColumn is a named overlay of a working trial balance, optionally
// linked to the journal entry the proposed adjustments came from.
type AdjustmentColumn struct {
	ColumnID      string               `json:"columnID"`
	WorkspaceID   string               `json:"workspaceID"`
	Name          string               `json:"name"`
	Kind          AdjustmentColumnKind `json:"kind"`
	SourceEntryID *string              `json:"sourceEntryID,omitempty"`
}

// Adjustment is one signed overlay amount for a (column, account) pair.
// Positive amounts push the account toward the debit side.
type Adjustment struct {
	ColumnID  string          `json:"columnID"`
	AccountID string          `json:"accountID"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// WorkingTrialBalanceLine is one account row of a workspace: the unadjusted
// snapshot, the overlaid adjustments, and the recomputed adjusted pair.
type WorkingTrialBalanceLine struct {
	AccountID        string          `json:"accountID"`
	AccountCode      string          `json:"accountCode"`
	AccountName      string          `json:"accountName"`
	UnadjustedDebit  decimal.Decimal `json:"unadjustedDebit"`
	UnadjustedCredit decimal.Decimal `json:"unadjustedCredit"`
	Adjustments      []Adjustment    `json:"adjustments,omitempty"`
	AdjustedDebit    decimal.Decimal `json:"adjustedDebit"`
	AdjustedCredit   decimal.Decimal `json:"adjustedCredit"`
}

// Recompute derives the adjusted pair from the unadjusted snapshot plus the
// signed adjustment sum. The net is re-split so at most one side is nonzero.
func (l *WorkingTrialBalanceLine) Recompute() {
	net := l.UnadjustedDebit.Sub(l.UnadjustedCredit)
	for _, adj := range l.Adjustments {
		net = net.Add(adj.Amount)
	}
	if net.IsNegative() {
		l.AdjustedDebit = decimal.Zero
		l.AdjustedCredit = net.Neg()
	} else {
		l.AdjustedDebit = net
		l.AdjustedCredit = decimal.Zero
	}
}

// WorkingTrialBalance is a mutable adjustment workspace snapshotted from the
// ledger at creation time. It diverges from the ledger afterward by design;
// once locked it becomes a permanent audit artifact.
type WorkingTrialBalance struct {
	WorkspaceID string                    `json:"workspaceID"`
	OrgID       string                    `json:"orgID"`
	AsOf        time.Time                 `json:"asOf"`
	Status      WorkspaceStatus           `json:"status"`
	Columns     []AdjustmentColumn        `json:"columns,omitempty"`
	Lines       []WorkingTrialBalanceLine `json:"lines,omitempty"`
	AuditFields
}

// IsLocked reports whether the workspace rejects further mutation.
func (w WorkingTrialBalance) IsLocked() bool {
	return w.Status == WorkspaceLocked
}

// AdjustedTotals sums the adjusted debit and credit columns.
func (w WorkingTrialBalance) AdjustedTotals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range w.Lines {
		debit = debit.Add(l.AdjustedDebit)
		credit = credit.Add(l.AdjustedCredit)
	}
	return debit, credit
}
