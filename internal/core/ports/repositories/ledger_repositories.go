package repositories

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
)

// PostingReader defines read operations over the append-only posting table.
// All amounts are base-currency.
type PostingReader interface {
	// SumPostingsByAccount aggregates base debit/credit totals of one account
	// for postings dated at or before asOf.
	SumPostingsByAccount(ctx context.Context, orgID, accountID string, asOf time.Time) (domain.DebitCredit, error)

	// SumPostingsByOrg aggregates base debit/credit totals per account for
	// postings dated at or before asOf, keyed by account ID.
	SumPostingsByOrg(ctx context.Context, orgID string, asOf time.Time) (map[string]domain.DebitCredit, error)

	// FindPostingsByEntryID retrieves the postings emitted by one entry in
	// line order.
	FindPostingsByEntryID(ctx context.Context, entryID string) ([]domain.LedgerPosting, error)
}

// BalanceReader defines read operations over the cached account-period
// balance roll-ups.
type BalanceReader interface {
	// FindBalance retrieves the balance row for one (account, period) cell.
	FindBalance(ctx context.Context, orgID, accountID, periodID string) (*domain.AccountPeriodBalance, error)

	// ListBalancesByAccount retrieves all balance rows of one account ordered
	// by period start date.
	ListBalancesByAccount(ctx context.Context, orgID, accountID string) ([]domain.AccountPeriodBalance, error)
}

// LedgerRepositoryFacade combines the ledger read interfaces.
type LedgerRepositoryFacade interface {
	PostingReader
	BalanceReader
}
