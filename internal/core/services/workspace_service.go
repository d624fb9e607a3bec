package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
)

// workspaceService owns working trial balance workspaces: point-in-time
// snapshots of the ledger that accountants adjust and eventually lock.
type workspaceService struct {
	workspaceRepo portsrepo.WorkspaceRepositoryFacade
	balanceSvc    portssvc.BalanceSvcFacade
	accounts      portssvc.AccountRegistry
	audit         portssvc.AuditSink
}

// NewWorkspaceService creates a new WorkspaceSvcFacade.
func NewWorkspaceService(
	workspaceRepo portsrepo.WorkspaceRepositoryFacade,
	balanceSvc portssvc.BalanceSvcFacade,
	accounts portssvc.AccountRegistry,
	audit portssvc.AuditSink,
) portssvc.WorkspaceSvcFacade {
	return &workspaceService{
		workspaceRepo: workspaceRepo,
		balanceSvc:    balanceSvc,
		accounts:      accounts,
		audit:         audit,
	}
}

var _ portssvc.WorkspaceSvcFacade = (*workspaceService)(nil)

// CreateWorkspace snapshots the ungrouped trial balance at the requested date
// into a new draft workspace. The snapshot does not track the ledger
// afterward; postings made later never leak into an existing workspace.
func (s *workspaceService) CreateWorkspace(ctx context.Context, orgID string, req dto.CreateWorkspaceRequest, creatorID string) (*domain.WorkingTrialBalance, error) {
	report, err := s.balanceSvc.TrialBalance(ctx, orgID, dto.TrialBalanceParams{
		AsOf:    req.AsOf,
		GroupBy: string(domain.GroupByNone),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot trial balance: %w", err)
	}

	now := time.Now().UTC()
	workspace := domain.WorkingTrialBalance{
		WorkspaceID: uuid.NewString(),
		OrgID:       orgID,
		AsOf:        req.AsOf,
		Status:      domain.WorkspaceDraft,
		Lines:       make([]domain.WorkingTrialBalanceLine, 0, len(report.Rows)),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}
	for _, row := range report.Rows {
		line := domain.WorkingTrialBalanceLine{
			AccountID:        row.AccountID,
			AccountCode:      row.AccountCode,
			AccountName:      row.AccountName,
			UnadjustedDebit:  row.Debit,
			UnadjustedCredit: row.Credit,
			AdjustedDebit:    row.Debit,
			AdjustedCredit:   row.Credit,
		}
		workspace.Lines = append(workspace.Lines, line)
	}

	if err := s.workspaceRepo.SaveWorkspace(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to save workspace: %w", err)
	}

	recordAudit(ctx, s.audit, "workspace.created", "workspace", workspace.WorkspaceID, map[string]any{
		"orgID": orgID,
		"asOf":  req.AsOf.Format("2006-01-02"),
		"lines": len(workspace.Lines),
	})
	return &workspace, nil
}

// GetWorkspace retrieves a workspace hydrated with columns, lines and
// adjustments.
func (s *workspaceService) GetWorkspace(ctx context.Context, orgID, workspaceID string) (*domain.WorkingTrialBalance, error) {
	workspace, err := s.workspaceRepo.FindWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.OrgID != orgID {
		return nil, fmt.Errorf("%w: workspace %s", apperrors.ErrNotFound, workspaceID)
	}
	return workspace, nil
}

// AddColumn appends a named adjustment overlay to a draft workspace.
func (s *workspaceService) AddColumn(ctx context.Context, orgID, workspaceID string, req dto.AddColumnRequest) (*domain.AdjustmentColumn, error) {
	workspace, err := s.GetWorkspace(ctx, orgID, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.IsLocked() {
		return nil, fmt.Errorf("%w: workspace %s", apperrors.ErrLockedWorkspace, workspaceID)
	}

	column := domain.AdjustmentColumn{
		ColumnID:      uuid.NewString(),
		WorkspaceID:   workspaceID,
		Name:          req.Name,
		Kind:          domain.AdjustmentColumnKind(req.Kind),
		SourceEntryID: req.SourceEntryID,
	}
	if err := s.workspaceRepo.AddColumn(ctx, column); err != nil {
		return nil, fmt.Errorf("failed to add column: %w", err)
	}

	recordAudit(ctx, s.audit, "workspace.column_added", "workspace", workspaceID, map[string]any{
		"orgID":    orgID,
		"columnID": column.ColumnID,
		"kind":     req.Kind,
	})
	return &column, nil
}

// RecordAdjustment replaces the adjustment for one (column, account) pair and
// recomputes the account line's adjusted pair. The repository re-checks the
// lock transactionally, so an adjustment racing a lock loses cleanly.
func (s *workspaceService) RecordAdjustment(ctx context.Context, orgID, workspaceID string, req dto.RecordAdjustmentRequest, actorID string) (*domain.WorkingTrialBalance, error) {
	workspace, err := s.GetWorkspace(ctx, orgID, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.IsLocked() {
		return nil, fmt.Errorf("%w: workspace %s", apperrors.ErrLockedWorkspace, workspaceID)
	}

	columnKnown := false
	for _, col := range workspace.Columns {
		if col.ColumnID == req.ColumnID {
			columnKnown = true
			break
		}
	}
	if !columnKnown {
		return nil, fmt.Errorf("%w: column %s not in workspace %s", apperrors.ErrValidation, req.ColumnID, workspaceID)
	}

	lineIdx := -1
	for i := range workspace.Lines {
		if workspace.Lines[i].AccountID == req.AccountID {
			lineIdx = i
			break
		}
	}
	if lineIdx < 0 {
		// Accounts that had no balance at snapshot time still accept
		// adjustments; they enter the workspace with a zero unadjusted pair.
		account, err := s.accounts.GetAccount(ctx, orgID, req.AccountID)
		if err != nil {
			return nil, err
		}
		workspace.Lines = append(workspace.Lines, domain.WorkingTrialBalanceLine{
			AccountID:   account.AccountID,
			AccountCode: account.Code,
			AccountName: account.Name,
		})
		lineIdx = len(workspace.Lines) - 1
	}

	line := &workspace.Lines[lineIdx]
	adjustment := domain.Adjustment{
		ColumnID:  req.ColumnID,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Reference: req.Reference,
	}
	replaced := false
	for i := range line.Adjustments {
		if line.Adjustments[i].ColumnID == req.ColumnID {
			line.Adjustments[i] = adjustment
			replaced = true
			break
		}
	}
	if !replaced {
		line.Adjustments = append(line.Adjustments, adjustment)
	}
	line.Recompute()

	if err := s.workspaceRepo.UpsertAdjustment(ctx, workspaceID, adjustment, line.AdjustedDebit, line.AdjustedCredit); err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, "workspace.adjustment_recorded", "workspace", workspaceID, map[string]any{
		"orgID":     orgID,
		"columnID":  req.ColumnID,
		"accountID": req.AccountID,
		"amount":    req.Amount.String(),
		"actorID":   actorID,
	})
	return workspace, nil
}

// LockWorkspace transitions a balanced draft workspace to LOCKED. Lock is
// terminal and refused while the adjusted columns disagree.
func (s *workspaceService) LockWorkspace(ctx context.Context, orgID, workspaceID string, actorID string) (*domain.WorkingTrialBalance, error) {
	workspace, err := s.GetWorkspace(ctx, orgID, workspaceID)
	if err != nil {
		return nil, err
	}
	if workspace.IsLocked() {
		return nil, fmt.Errorf("%w: workspace %s is already locked", apperrors.ErrLockedWorkspace, workspaceID)
	}

	debit, credit := workspace.AdjustedTotals()
	if !debit.Equal(credit) {
		return nil, fmt.Errorf("%w: adjusted debit total %s vs adjusted credit total %s",
			apperrors.ErrUnbalancedWorkspace, debit.String(), credit.String())
	}

	now := time.Now().UTC()
	if err := s.workspaceRepo.LockWorkspace(ctx, workspaceID, actorID, now); err != nil {
		return nil, err
	}
	workspace.Status = domain.WorkspaceLocked
	workspace.LastUpdatedAt = now
	workspace.LastUpdatedBy = actorID

	recordAudit(ctx, s.audit, "workspace.locked", "workspace", workspaceID, map[string]any{
		"orgID":    orgID,
		"lockedBy": actorID,
	})
	return workspace, nil
}
