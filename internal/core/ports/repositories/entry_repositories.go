package repositories

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
)

// EntryListFilter narrows entry listings.
type EntryListFilter struct {
	Status *domain.EntryStatus
	Kind   *domain.EntryKind
}

// EntryReader defines read operations for journal entry data.
type EntryReader interface {
	// FindEntryByID retrieves an entry header by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves all lines of an entry in line order.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListEntriesByOrg retrieves a keyset-paginated list of entry headers for
	// an organization. It returns the entries, a token for the next page, and
	// an error.
	ListEntriesByOrg(ctx context.Context, orgID string, limit int, nextToken *string, filter EntryListFilter) ([]domain.JournalEntry, *string, error)

	// ListDueAutoReversals retrieves headers of posted entries whose
	// auto-reverse date is at or before asOf.
	ListDueAutoReversals(ctx context.Context, asOf time.Time) ([]domain.JournalEntry, error)
}

// EntryWriter defines write operations for journal entry data. PostEntry and
// ReverseEntry are the two atomic materialization units: posting rows, balance
// increments, number allocation and the status flip either all apply or none
// do.
type EntryWriter interface {
	// SaveDraft persists a new draft entry header together with its lines.
	SaveDraft(ctx context.Context, entry domain.JournalEntry) error

	// ReplaceDraftLines replaces a draft entry's lines wholesale. Fails when
	// the entry is no longer a draft.
	ReplaceDraftLines(ctx context.Context, entry domain.JournalEntry) error

	// DeleteDraft removes a draft entry and its lines. Fails when the entry is
	// no longer a draft.
	DeleteDraft(ctx context.Context, entryID string) error

	// PostEntry transitions a draft to POSTED in a single transaction:
	// allocates the next sequence value for key, writes the ledger postings,
	// applies the balance deltas and stamps the entry number. Returns the
	// assigned entry number.
	PostEntry(ctx context.Context, entry domain.JournalEntry, postings []domain.LedgerPosting, deltas []domain.BalanceDelta, key domain.SequenceKey) (string, error)

	// ReverseEntry posts the reversing entry and flips the original to
	// REVERSED with cross-links, all in one transaction. Returns the
	// reversing entry's assigned number.
	ReverseEntry(ctx context.Context, original domain.JournalEntry, reversing domain.JournalEntry, postings []domain.LedgerPosting, deltas []domain.BalanceDelta, key domain.SequenceKey) (string, error)

	// SetAutoReverseDate stores or clears an entry's scheduled auto-reversal
	// date.
	SetAutoReverseDate(ctx context.Context, entryID string, date *time.Time, updatedBy string, updatedAt time.Time) error
}

// EntryRepositoryFacade combines all entry-related repository interfaces.
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}
