package services

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/openledger-app/openledger/internal/dto"
)

// BalanceSvcFacade computes point-in-time balances and trial balances from
// ledger postings.
type BalanceSvcFacade interface {
	// AccountBalance sums postings up to asOf and renders the net as a
	// (debit, credit) pair on the account's normal side.
	AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (*domain.AccountBalanceResult, error)

	// TrialBalance computes every matching account's balance at a date,
	// optionally grouped; fails with apperrors.ErrImbalance when column
	// totals disagree.
	TrialBalance(ctx context.Context, orgID string, params dto.TrialBalanceParams) (*domain.TrialBalanceReport, error)

	// ComparativeTrialBalance computes net balances at the current and prior
	// dates with variance analysis.
	ComparativeTrialBalance(ctx context.Context, orgID string, params dto.ComparativeTrialBalanceParams) (*domain.ComparativeTrialBalance, error)

	// PeriodBalance retrieves the cached roll-up for one (account, period)
	// cell.
	PeriodBalance(ctx context.Context, orgID, accountID, periodID string) (*domain.AccountPeriodBalance, error)

	// PeriodBalances retrieves an account's roll-ups across all periods it has
	// been posted to, in fiscal order.
	PeriodBalances(ctx context.Context, orgID, accountID string) ([]domain.AccountPeriodBalance, error)
}

// WorkspaceSvcFacade owns working trial balance workspaces.
type WorkspaceSvcFacade interface {
	// CreateWorkspace snapshots the trial balance at asOf into a mutable
	// workspace with zeroed adjustment columns.
	CreateWorkspace(ctx context.Context, orgID string, req dto.CreateWorkspaceRequest, creatorID string) (*domain.WorkingTrialBalance, error)

	// GetWorkspace retrieves a hydrated workspace.
	GetWorkspace(ctx context.Context, orgID, workspaceID string) (*domain.WorkingTrialBalance, error)

	// AddColumn appends an adjustment overlay column.
	AddColumn(ctx context.Context, orgID, workspaceID string, req dto.AddColumnRequest) (*domain.AdjustmentColumn, error)

	// RecordAdjustment appends/replaces the adjustment for a (column, account)
	// pair and recomputes the adjusted pair.
	RecordAdjustment(ctx context.Context, orgID, workspaceID string, req dto.RecordAdjustmentRequest, actorID string) (*domain.WorkingTrialBalance, error)

	// LockWorkspace transitions a balanced workspace to LOCKED (terminal).
	LockWorkspace(ctx context.Context, orgID, workspaceID string, actorID string) (*domain.WorkingTrialBalance, error)
}
