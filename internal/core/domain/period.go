package domain

import "time"

// PeriodStatus indicates whether a fiscal period accepts postings.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod is the slice of the fiscal calendar that encloses a posting
// date. Periods never overlap within one organization; the period directory
// enforces that.
type FiscalPeriod struct {
	PeriodID     string       `json:"periodID"`
	OrgID        string       `json:"orgID"`
	FiscalYearID string       `json:"fiscalYearID"`
	Name         string       `json:"name"`
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	Status       PeriodStatus `json:"status"`
}

// IsOpen reports whether the period currently accepts postings.
func (p FiscalPeriod) IsOpen() bool {
	return p.Status == PeriodOpen
}

// Contains reports whether the date falls inside the period (inclusive bounds,
// compared at day granularity).
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate.Truncate(24*time.Hour)) && !d.After(p.EndDate.Truncate(24*time.Hour))
}
