package services

// ServiceContainer aggregates the engine's service facades for injection into
// the HTTP layer and background jobs.
type ServiceContainer struct {
	Entry     EntrySvcFacade
	Reversal  ReversalSvcFacade
	Balance   BalanceSvcFacade
	Workspace WorkspaceSvcFacade
}
