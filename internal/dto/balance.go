package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceParams holds query parameters for a trial balance.
type TrialBalanceParams struct {
	AsOf         time.Time `form:"asOf" time_format:"2006-01-02"`
	GroupBy      string    `form:"groupBy" binding:"omitempty,oneof=NONE CLASS HIERARCHY"`
	SuppressZero bool      `form:"suppressZero"`
	Classes      []int     `form:"class"`
	CodeFrom     string    `form:"codeFrom"`
	CodeTo       string    `form:"codeTo"`
	AccountIDs   []string  `form:"accountID"`
}

// ComparativeTrialBalanceParams holds query parameters for a comparative
// trial balance. Threshold is the significance cutoff in percent.
type ComparativeTrialBalanceParams struct {
	Current   time.Time       `form:"current" time_format:"2006-01-02" binding:"required"`
	Priors    []time.Time     `form:"prior" time_format:"2006-01-02" binding:"required,min=1"`
	Threshold decimal.Decimal `form:"threshold"`
}
