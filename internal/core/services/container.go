package services

import (
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
)

// NewServiceContainer wires the service facades over the repository container
// and the external collaborators.
func NewServiceContainer(
	repos *portsrepo.RepositoryContainer,
	accounts portssvc.AccountRegistry,
	periods portssvc.PeriodDirectory,
	audit portssvc.AuditSink,
	notifier portssvc.Notifier,
) *portssvc.ServiceContainer {
	balanceSvc := NewBalanceService(repos.Ledger, accounts)
	return &portssvc.ServiceContainer{
		Entry:     NewEntryService(repos.Entry, accounts, periods, audit),
		Reversal:  NewReversalService(repos.Entry, accounts, periods, audit, notifier),
		Balance:   balanceSvc,
		Workspace: NewWorkspaceService(repos.Workspace, balanceSvc, accounts, audit),
	}
}
