package domain

import "time"

// SweepEntryResult reports the outcome of one entry inside an auto-reversal
// sweep. Failures carry the error text so the originator can be notified
// without re-deriving the cause.
type SweepEntryResult struct {
	EntryID          string  `json:"entryID"`
	EntryNumber      string  `json:"entryNumber,omitempty"`
	CreatedBy        string  `json:"createdBy"`
	Reversed         bool    `json:"reversed"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// AutoReversalSweepResult aggregates one sweep run. Each entry is an
// independent unit of work; one failure never aborts the rest.
type AutoReversalSweepResult struct {
	AsOf       time.Time          `json:"asOf"`
	Processed  int                `json:"processed"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Results    []SweepEntryResult `json:"results"`
}
