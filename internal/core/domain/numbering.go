package domain

import (
	"fmt"
	"time"
)

// SequenceKey identifies one gapless entry-number sequence. Month is zero for
// kinds whose sequence runs per fiscal year.
type SequenceKey struct {
	OrgID  string
	Prefix string
	Year   int
	Month  int
}

// SequenceKeyFor derives the sequence key for an entry of the given kind
// dated at the given date.
func SequenceKeyFor(orgID string, kind EntryKind, date time.Time) SequenceKey {
	key := SequenceKey{
		OrgID:  orgID,
		Prefix: kind.Prefix(),
		Year:   date.Year(),
	}
	if kind.MonthlyScoped() {
		key.Month = int(date.Month())
	}
	return key
}

// FormatEntryNumber renders an allocated sequence value as the user-visible
// entry number, e.g. GEN-2024-01-000042 or ADJ-2024-000007.
func FormatEntryNumber(key SequenceKey, value int64) string {
	if key.Month > 0 {
		return fmt.Sprintf("%s-%d-%02d-%06d", key.Prefix, key.Year, key.Month, value)
	}
	return fmt.Sprintf("%s-%d-%06d", key.Prefix, key.Year, value)
}
