package repositories

// RepositoryContainer aggregates the repository facades the engine needs.
type RepositoryContainer struct {
	Entry     EntryRepositoryFacade
	Ledger    LedgerRepositoryFacade
	Workspace WorkspaceRepositoryFacade
}
