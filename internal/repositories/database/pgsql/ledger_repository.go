package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new read-side repository over postings and
// cached balances. All writes to these tables happen inside the entry
// repository's posting transactions.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SumPostingsByAccount aggregates base debit/credit totals of one account for
// postings dated at or before asOf.
func (r *PgxLedgerRepository) SumPostingsByAccount(ctx context.Context, orgID, accountID string, asOf time.Time) (domain.DebitCredit, error) {
	query := `
		SELECT COALESCE(SUM(base_debit), 0), COALESCE(SUM(base_credit), 0)
		FROM ledger_postings
		WHERE org_id = $1 AND account_id = $2 AND posting_date <= $3;
	`
	var totals domain.DebitCredit
	if err := r.Pool.QueryRow(ctx, query, orgID, accountID, asOf).Scan(&totals.Debit, &totals.Credit); err != nil {
		return domain.DebitCredit{}, apperrors.NewAppError(500, "failed to sum postings for account "+accountID, err)
	}
	return totals, nil
}

// SumPostingsByOrg aggregates base debit/credit totals per account for
// postings dated at or before asOf, keyed by account ID. Accounts with no
// postings are absent from the map.
func (r *PgxLedgerRepository) SumPostingsByOrg(ctx context.Context, orgID string, asOf time.Time) (map[string]domain.DebitCredit, error) {
	query := `
		SELECT account_id, COALESCE(SUM(base_debit), 0), COALESCE(SUM(base_credit), 0)
		FROM ledger_postings
		WHERE org_id = $1 AND posting_date <= $2
		GROUP BY account_id;
	`
	rows, err := r.Pool.Query(ctx, query, orgID, asOf)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sum postings for org "+orgID, err)
	}
	defer rows.Close()

	sums := make(map[string]domain.DebitCredit)
	for rows.Next() {
		var accountID string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&accountID, &debit, &credit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan posting sums for org "+orgID, err)
		}
		sums[accountID] = domain.DebitCredit{Debit: debit, Credit: credit}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating posting sums for org "+orgID, err)
	}
	return sums, nil
}

// FindPostingsByEntryID retrieves the postings emitted by one entry in line
// order.
func (r *PgxLedgerRepository) FindPostingsByEntryID(ctx context.Context, entryID string) ([]domain.LedgerPosting, error) {
	query := `
		SELECT posting_id, org_id, entry_id, line_id, line_no, account_id, period_id,
		       posting_date, base_debit, base_credit, posted_at
		FROM ledger_postings
		WHERE entry_id = $1
		ORDER BY line_no;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings for entry "+entryID, err)
	}
	defer rows.Close()

	postings := []domain.LedgerPosting{}
	for rows.Next() {
		var p domain.LedgerPosting
		if err := rows.Scan(
			&p.PostingID,
			&p.OrgID,
			&p.EntryID,
			&p.LineID,
			&p.LineNo,
			&p.AccountID,
			&p.PeriodID,
			&p.Date,
			&p.BaseDebit,
			&p.BaseCredit,
			&p.PostedAt,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan posting row for entry "+entryID, err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating posting rows for entry "+entryID, err)
	}
	return postings, nil
}

const balanceColumns = `org_id, account_id, period_id, normal_side, opening, debit_movements, credit_movements, closing`

func scanBalance(row pgx.Row) (domain.AccountPeriodBalance, error) {
	var b domain.AccountPeriodBalance
	err := row.Scan(
		&b.OrgID,
		&b.AccountID,
		&b.PeriodID,
		&b.NormalSide,
		&b.Opening,
		&b.DebitMovements,
		&b.CreditMovements,
		&b.Closing,
	)
	return b, err
}

// FindBalance retrieves the balance row for one (account, period) cell.
func (r *PgxLedgerRepository) FindBalance(ctx context.Context, orgID, accountID, periodID string) (*domain.AccountPeriodBalance, error) {
	query := `SELECT ` + balanceColumns + `
		FROM account_period_balances
		WHERE org_id = $1 AND account_id = $2 AND period_id = $3;`

	balance, err := scanBalance(r.Pool.QueryRow(ctx, query, orgID, accountID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find balance for account "+accountID, err)
	}
	return &balance, nil
}

// ListBalancesByAccount retrieves all balance rows of one account ordered by
// period start date.
func (r *PgxLedgerRepository) ListBalancesByAccount(ctx context.Context, orgID, accountID string) ([]domain.AccountPeriodBalance, error) {
	query := `
		SELECT b.org_id, b.account_id, b.period_id, b.normal_side, b.opening,
		       b.debit_movements, b.credit_movements, b.closing
		FROM account_period_balances b
		JOIN fiscal_periods fp ON fp.period_id = b.period_id
		WHERE b.org_id = $1 AND b.account_id = $2
		ORDER BY fp.start_date;`

	rows, err := r.Pool.Query(ctx, query, orgID, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query balances for account "+accountID, err)
	}
	defer rows.Close()

	balances := []domain.AccountPeriodBalance{}
	for rows.Next() {
		balance, scanErr := scanBalance(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan balance row for account "+accountID, scanErr)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating balance rows for account "+accountID, err)
	}
	return balances, nil
}
