package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
)

type PgxWorkspaceRepository struct {
	BaseRepository
}

// newPgxWorkspaceRepository creates a new repository for working trial
// balance workspaces.
func newPgxWorkspaceRepository(pool *pgxpool.Pool) portsrepo.WorkspaceRepositoryFacade {
	return &PgxWorkspaceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WorkspaceRepositoryFacade = (*PgxWorkspaceRepository)(nil)

// FindWorkspaceByID retrieves a workspace fully hydrated with columns, lines
// and adjustments.
func (r *PgxWorkspaceRepository) FindWorkspaceByID(ctx context.Context, workspaceID string) (*domain.WorkingTrialBalance, error) {
	headerQuery := `
		SELECT workspace_id, org_id, as_of, status,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM wtb_workspaces
		WHERE workspace_id = $1;
	`
	var w domain.WorkingTrialBalance
	err := r.Pool.QueryRow(ctx, headerQuery, workspaceID).Scan(
		&w.WorkspaceID,
		&w.OrgID,
		&w.AsOf,
		&w.Status,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.LastUpdatedAt,
		&w.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find workspace "+workspaceID, err)
	}

	w.Columns, err = r.findColumns(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	w.Lines, err = r.findLines(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *PgxWorkspaceRepository) findColumns(ctx context.Context, workspaceID string) ([]domain.AdjustmentColumn, error) {
	query := `
		SELECT column_id, workspace_id, name, kind, source_entry_id
		FROM wtb_columns
		WHERE workspace_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query columns for workspace "+workspaceID, err)
	}
	defer rows.Close()

	columns := []domain.AdjustmentColumn{}
	for rows.Next() {
		var c domain.AdjustmentColumn
		var sourceEntryID sql.NullString
		if err := rows.Scan(&c.ColumnID, &c.WorkspaceID, &c.Name, &c.Kind, &sourceEntryID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan column row for workspace "+workspaceID, err)
		}
		if sourceEntryID.Valid {
			c.SourceEntryID = &sourceEntryID.String
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating column rows for workspace "+workspaceID, err)
	}
	return columns, nil
}

func (r *PgxWorkspaceRepository) findLines(ctx context.Context, workspaceID string) ([]domain.WorkingTrialBalanceLine, error) {
	lineQuery := `
		SELECT account_id, account_code, account_name,
		       unadjusted_debit, unadjusted_credit, adjusted_debit, adjusted_credit
		FROM wtb_lines
		WHERE workspace_id = $1
		ORDER BY account_code;
	`
	rows, err := r.Pool.Query(ctx, lineQuery, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for workspace "+workspaceID, err)
	}
	defer rows.Close()

	lines := []domain.WorkingTrialBalanceLine{}
	lineIdx := make(map[string]int)
	for rows.Next() {
		var l domain.WorkingTrialBalanceLine
		if err := rows.Scan(
			&l.AccountID,
			&l.AccountCode,
			&l.AccountName,
			&l.UnadjustedDebit,
			&l.UnadjustedCredit,
			&l.AdjustedDebit,
			&l.AdjustedCredit,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for workspace "+workspaceID, err)
		}
		lineIdx[l.AccountID] = len(lines)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for workspace "+workspaceID, err)
	}

	adjQuery := `
		SELECT a.column_id, a.account_id, a.amount, a.reference
		FROM wtb_adjustments a
		JOIN wtb_columns c ON c.column_id = a.column_id
		WHERE c.workspace_id = $1
		ORDER BY c.created_at;
	`
	adjRows, err := r.Pool.Query(ctx, adjQuery, workspaceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query adjustments for workspace "+workspaceID, err)
	}
	defer adjRows.Close()

	for adjRows.Next() {
		var a domain.Adjustment
		if err := adjRows.Scan(&a.ColumnID, &a.AccountID, &a.Amount, &a.Reference); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan adjustment row for workspace "+workspaceID, err)
		}
		if idx, ok := lineIdx[a.AccountID]; ok {
			lines[idx].Adjustments = append(lines[idx].Adjustments, a)
		}
	}
	if err := adjRows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating adjustment rows for workspace "+workspaceID, err)
	}
	return lines, nil
}

// SaveWorkspace persists a new workspace snapshot with its lines.
func (r *PgxWorkspaceRepository) SaveWorkspace(ctx context.Context, workspace domain.WorkingTrialBalance) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	headerQuery := `
		INSERT INTO wtb_workspaces (workspace_id, org_id, as_of, status,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	if _, err := tx.Exec(ctx, headerQuery,
		workspace.WorkspaceID,
		workspace.OrgID,
		workspace.AsOf,
		workspace.Status,
		workspace.CreatedAt,
		workspace.CreatedBy,
		workspace.LastUpdatedAt,
		workspace.LastUpdatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert workspace "+workspace.WorkspaceID, err)
	}

	lineQuery := `
		INSERT INTO wtb_lines (workspace_id, account_id, account_code, account_name,
			unadjusted_debit, unadjusted_credit, adjusted_debit, adjusted_credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for _, l := range workspace.Lines {
		batch.Queue(lineQuery,
			workspace.WorkspaceID,
			l.AccountID,
			l.AccountCode,
			l.AccountName,
			l.UnadjustedDebit,
			l.UnadjustedCredit,
			l.AdjustedDebit,
			l.AdjustedCredit,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for workspace "+workspace.WorkspaceID, err)
	}

	return r.Commit(ctx, tx)
}

// requireDraftWorkspace locks the workspace row and fails with
// ErrLockedWorkspace when it is no longer a draft. Mutations racing a lock
// serialize here and lose.
func requireDraftWorkspace(ctx context.Context, tx pgx.Tx, workspaceID string) error {
	var status domain.WorkspaceStatus
	err := tx.QueryRow(ctx, `SELECT status FROM wtb_workspaces WHERE workspace_id = $1 FOR UPDATE;`, workspaceID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to check status of workspace "+workspaceID, err)
	}
	if status != domain.WorkspaceDraft {
		return apperrors.ErrLockedWorkspace
	}
	return nil
}

// AddColumn appends an adjustment column to a draft workspace.
func (r *PgxWorkspaceRepository) AddColumn(ctx context.Context, column domain.AdjustmentColumn) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := requireDraftWorkspace(ctx, tx, column.WorkspaceID); err != nil {
		return err
	}

	query := `
		INSERT INTO wtb_columns (column_id, workspace_id, name, kind, source_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW());
	`
	if _, err := tx.Exec(ctx, query,
		column.ColumnID,
		column.WorkspaceID,
		column.Name,
		column.Kind,
		column.SourceEntryID,
	); err != nil {
		return apperrors.NewAppError(500, "failed to insert column for workspace "+column.WorkspaceID, err)
	}

	return r.Commit(ctx, tx)
}

// UpsertAdjustment replaces the adjustment for the (column, account) pair and
// stores the recomputed adjusted pair for the account's line, creating the
// line when the account was absent from the snapshot.
func (r *PgxWorkspaceRepository) UpsertAdjustment(ctx context.Context, workspaceID string, adjustment domain.Adjustment, adjustedDebit, adjustedCredit decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := requireDraftWorkspace(ctx, tx, workspaceID); err != nil {
		return err
	}

	adjQuery := `
		INSERT INTO wtb_adjustments (column_id, account_id, amount, reference)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (column_id, account_id)
		DO UPDATE SET amount = EXCLUDED.amount, reference = EXCLUDED.reference;
	`
	if _, err := tx.Exec(ctx, adjQuery,
		adjustment.ColumnID,
		adjustment.AccountID,
		adjustment.Amount,
		adjustment.Reference,
	); err != nil {
		return apperrors.NewAppError(500, "failed to upsert adjustment for workspace "+workspaceID, err)
	}

	lineQuery := `
		INSERT INTO wtb_lines (workspace_id, account_id, account_code, account_name,
			unadjusted_debit, unadjusted_credit, adjusted_debit, adjusted_credit)
		SELECT $1, a.account_id, a.code, a.name, 0, 0, $3, $4
		FROM accounts a
		WHERE a.account_id = $2
		ON CONFLICT (workspace_id, account_id)
		DO UPDATE SET adjusted_debit = EXCLUDED.adjusted_debit, adjusted_credit = EXCLUDED.adjusted_credit;
	`
	if _, err := tx.Exec(ctx, lineQuery,
		workspaceID,
		adjustment.AccountID,
		adjustedDebit,
		adjustedCredit,
	); err != nil {
		return apperrors.NewAppError(500, "failed to store adjusted pair for workspace "+workspaceID, err)
	}

	return r.Commit(ctx, tx)
}

// LockWorkspace transitions a draft workspace to LOCKED. The transition is
// terminal.
func (r *PgxWorkspaceRepository) LockWorkspace(ctx context.Context, workspaceID string, lockedBy string, lockedAt time.Time) error {
	query := `
		UPDATE wtb_workspaces
		SET status = 'LOCKED', last_updated_at = $2, last_updated_by = $3
		WHERE workspace_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, workspaceID, lockedAt, lockedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to lock workspace "+workspaceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wtb_workspaces WHERE workspace_id = $1);`, workspaceID).Scan(&exists); err != nil {
			return apperrors.NewAppError(500, "failed to check existence of workspace "+workspaceID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrLockedWorkspace
	}
	return nil
}
