package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
)

// RepositoryProvider bundles every pgsql-backed adapter the engine needs: the
// repository container for the service layer plus the read-only master data
// adapters and the audit sink.
type RepositoryProvider struct {
	Repos    *portsrepo.RepositoryContainer
	Accounts portssvc.AccountRegistry
	Periods  portssvc.PeriodDirectory
	Audit    portssvc.AuditSink
}

func NewRepositoryProvider(dbPool *pgxpool.Pool) RepositoryProvider {
	return RepositoryProvider{
		Repos: &portsrepo.RepositoryContainer{
			Entry:     newPgxEntryRepository(dbPool),
			Ledger:    newPgxLedgerRepository(dbPool),
			Workspace: newPgxWorkspaceRepository(dbPool),
		},
		Accounts: newPgxAccountRepository(dbPool),
		Periods:  newPgxPeriodRepository(dbPool),
		Audit:    newPgxAuditRepository(dbPool),
	}
}
