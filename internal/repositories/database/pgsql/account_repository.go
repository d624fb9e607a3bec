package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates the read-only account registry adapter.
// Chart-of-accounts management lives outside the engine; the engine only
// reads the replicated master data.
func newPgxAccountRepository(pool *pgxpool.Pool) portssvc.AccountRegistry {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portssvc.AccountRegistry = (*PgxAccountRepository)(nil)

const accountColumns = `
	account_id, org_id, code, name, class, normal_balance, currency_code,
	parent_account_id, is_active, allows_posting
`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	var parentID sql.NullString
	err := row.Scan(
		&a.AccountID,
		&a.OrgID,
		&a.Code,
		&a.Name,
		&a.Class,
		&a.NormalBalance,
		&a.CurrencyCode,
		&parentID,
		&a.IsActive,
		&a.AllowsPosting,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if parentID.Valid {
		a.ParentAccountID = &parentID.String
	}
	return a, nil
}

// GetAccount retrieves one account by ID within an organization.
func (r *PgxAccountRepository) GetAccount(ctx context.Context, orgID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE org_id = $1 AND account_id = $2;`

	account, err := scanAccount(r.Pool.QueryRow(ctx, query, orgID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+accountID, err)
	}
	return &account, nil
}

// GetAccountsByIDs retrieves multiple accounts keyed by ID. Missing IDs are
// simply absent from the map.
func (r *PgxAccountRepository) GetAccountsByIDs(ctx context.Context, orgID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE org_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, orgID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", scanErr)
		}
		accounts[account.AccountID] = account
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListAccounts retrieves accounts matching the filter, ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, orgID string, filter domain.AccountFilter) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE org_id = $1`
	args := []interface{}{orgID}

	if len(filter.Classes) > 0 {
		args = append(args, filter.Classes)
		query += ` AND class = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	if filter.CodeFrom != "" {
		args = append(args, filter.CodeFrom)
		query += ` AND code >= $` + strconv.Itoa(len(args))
	}
	if filter.CodeTo != "" {
		args = append(args, filter.CodeTo)
		query += ` AND code <= $` + strconv.Itoa(len(args))
	}
	if len(filter.AccountIDs) > 0 {
		args = append(args, filter.AccountIDs)
		query += ` AND account_id = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts for org "+orgID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row for org "+orgID, scanErr)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows for org "+orgID, err)
	}
	return accounts, nil
}
