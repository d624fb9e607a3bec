package dto

import "time"

// ReverseEntryRequest reverses a posted entry on the given date.
type ReverseEntryRequest struct {
	Date   time.Time `json:"date" binding:"required"`
	Reason string    `json:"reason" binding:"required"`
}

// ScheduleAutoReverseRequest stores a future auto-reversal date on a posted
// entry. The sweep picks it up once the date is due.
type ScheduleAutoReverseRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// CreateCorrectionRequest posts a supplementary balanced entry linked to a
// posted original. The original's status is untouched.
type CreateCorrectionRequest struct {
	Date   time.Time           `json:"date" binding:"required"`
	Reason string              `json:"reason" binding:"required"`
	Lines  []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// RunSweepRequest triggers an auto-reversal sweep as of the given date.
// Zero AsOf means "now".
type RunSweepRequest struct {
	AsOf time.Time `json:"asOf"`
}
