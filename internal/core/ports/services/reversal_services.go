package services

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/openledger-app/openledger/internal/dto"
)

// ReversalSvcFacade owns the reversal/correction protocol and the scheduled
// auto-reversal sweep.
type ReversalSvcFacade interface {
	// Reverse posts a mirror entry and flips the source to REVERSED with
	// bidirectional links, atomically.
	Reverse(ctx context.Context, orgID, entryID string, req dto.ReverseEntryRequest, actorID string) (*domain.JournalEntry, error)

	// ScheduleAutoReverse stores a future auto-reversal date on a posted entry.
	ScheduleAutoReverse(ctx context.Context, orgID, entryID string, req dto.ScheduleAutoReverseRequest, actorID string) error

	// CancelAutoReverse clears a pending auto-reversal date.
	CancelAutoReverse(ctx context.Context, orgID, entryID string, actorID string) error

	// RunAutoReversalSweep reverses every posted entry whose auto-reverse date
	// is due, each as an independent unit of work.
	RunAutoReversalSweep(ctx context.Context, asOf time.Time) (*domain.AutoReversalSweepResult, error)

	// CreateCorrection posts a supplementary balanced entry linked to a posted
	// original without changing the original's status.
	CreateCorrection(ctx context.Context, orgID, entryID string, req dto.CreateCorrectionRequest, actorID string) (*domain.JournalEntry, error)
}
