package repositories

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// WorkspaceReader defines read operations for working trial balances.
type WorkspaceReader interface {
	// FindWorkspaceByID retrieves a workspace fully hydrated with columns,
	// lines and adjustments.
	FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.WorkingTrialBalance, error)
}

// WorkspaceWriter defines write operations for working trial balances. Every
// mutation re-checks the lock status transactionally at write time, so an
// adjustment racing a lock loses.
type WorkspaceWriter interface {
	// SaveWorkspace persists a new workspace snapshot with its lines.
	SaveWorkspace(ctx context.Context, workspace domain.WorkingTrialBalance) error

	// AddColumn appends an adjustment column to a draft workspace.
	AddColumn(ctx context.Context, column domain.AdjustmentColumn) error

	// UpsertAdjustment replaces the adjustment for the (column, account) pair
	// and stores the recomputed adjusted pair for the account's line. Fails
	// with apperrors.ErrLockedWorkspace when the workspace is locked.
	UpsertAdjustment(ctx context.Context, workspaceID string, adjustment domain.Adjustment, adjustedDebit, adjustedCredit decimal.Decimal) error

	// LockWorkspace transitions a draft workspace to LOCKED (terminal).
	LockWorkspace(ctx context.Context, workspaceID string, lockedBy string, lockedAt time.Time) error
}

// WorkspaceRepositoryFacade combines the workspace repository interfaces.
type WorkspaceRepositoryFacade interface {
	WorkspaceReader
	WorkspaceWriter
}
