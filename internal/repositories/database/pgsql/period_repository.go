package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates the fiscal calendar directory adapter.
// Period administration lives outside the engine.
func newPgxPeriodRepository(pool *pgxpool.Pool) portssvc.PeriodDirectory {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portssvc.PeriodDirectory = (*PgxPeriodRepository)(nil)

const periodColumns = `period_id, org_id, fiscal_year_id, name, start_date, end_date, status`

func scanPeriod(row pgx.Row) (domain.FiscalPeriod, error) {
	var p domain.FiscalPeriod
	err := row.Scan(
		&p.PeriodID,
		&p.OrgID,
		&p.FiscalYearID,
		&p.Name,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
	)
	return p, err
}

// FindPeriod retrieves the period enclosing the date. Periods never overlap
// within one organization, so at most one row matches.
func (r *PgxPeriodRepository) FindPeriod(ctx context.Context, orgID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + `
		FROM fiscal_periods
		WHERE org_id = $1 AND start_date <= $2 AND end_date >= $2;`

	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, orgID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find period for date "+date.Format("2006-01-02"), err)
	}
	return &period, nil
}

// GetPeriod retrieves a period by ID.
func (r *PgxPeriodRepository) GetPeriod(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE period_id = $1;`

	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find period "+periodID, err)
	}
	return &period, nil
}
