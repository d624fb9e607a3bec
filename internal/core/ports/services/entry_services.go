package services

import (
	"context"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/openledger-app/openledger/internal/dto"
)

// EntrySvcFacade owns the journal entry lifecycle: draft creation and
// mutation, posting, and reads.
type EntrySvcFacade interface {
	// CreateDraft validates and persists a new draft entry.
	CreateDraft(ctx context.Context, orgID string, req dto.CreateEntryRequest, creatorID string) (*domain.JournalEntry, error)

	// UpdateDraft replaces a draft's lines wholesale and re-validates balance.
	UpdateDraft(ctx context.Context, orgID, entryID string, req dto.UpdateDraftRequest, updaterID string) (*domain.JournalEntry, error)

	// DeleteDraft removes a draft entry.
	DeleteDraft(ctx context.Context, orgID, entryID string, deleterID string) error

	// Post transitions a draft to POSTED: re-validates at post time, allocates
	// the entry number and materializes the ledger postings atomically.
	Post(ctx context.Context, orgID, entryID string, posterID string) (*domain.JournalEntry, error)

	// GetEntry retrieves an entry with its lines.
	GetEntry(ctx context.Context, orgID, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries for an organization.
	ListEntries(ctx context.Context, orgID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}
