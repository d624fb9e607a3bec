package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWorkspaceRequest snapshots a trial balance into a mutable workspace.
type CreateWorkspaceRequest struct {
	AsOf time.Time `json:"asOf" binding:"required"`
}

// AddColumnRequest appends a named adjustment overlay to a draft workspace.
type AddColumnRequest struct {
	Name          string  `json:"name" binding:"required"`
	Kind          string  `json:"kind" binding:"required,oneof=ADJUSTING RECLASS PROPOSED"`
	SourceEntryID *string `json:"sourceEntryID"`
}

// RecordAdjustmentRequest appends or replaces the adjustment for one
// (column, account) pair. Positive amounts push the account toward debit.
type RecordAdjustmentRequest struct {
	ColumnID  string          `json:"columnID" binding:"required"`
	AccountID string          `json:"accountID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}
