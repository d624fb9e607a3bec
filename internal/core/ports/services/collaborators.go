package services

import (
	"context"
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
)

// AccountRegistry exposes account master data. Chart-of-accounts management
// lives outside the engine; this is the narrow read contract it consumes.
type AccountRegistry interface {
	// GetAccount retrieves one account by ID within an organization.
	GetAccount(ctx context.Context, orgID, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts keyed by ID. Missing IDs
	// are simply absent from the map.
	GetAccountsByIDs(ctx context.Context, orgID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves accounts matching the filter.
	ListAccounts(ctx context.Context, orgID string, filter domain.AccountFilter) ([]domain.Account, error)
}

// PeriodDirectory exposes the fiscal calendar. Period administration lives
// outside the engine; periods never overlap within one organization.
type PeriodDirectory interface {
	// FindPeriod retrieves the period enclosing the date, or
	// apperrors.ErrNotFound when no period covers it.
	FindPeriod(ctx context.Context, orgID string, date time.Time) (*domain.FiscalPeriod, error)

	// GetPeriod retrieves a period by ID.
	GetPeriod(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)
}

// AuditSink records audit trail events. Fire-and-forget from the engine's
// perspective: a failure to record must never block the underlying financial
// mutation, only surface as a degraded-mode warning.
type AuditSink interface {
	Record(ctx context.Context, action, entityType, entityID string, details map[string]any) error
}

// Notifier delivers out-of-band notifications. Used only by the auto-reversal
// sweep; failures are logged, not retried synchronously.
type Notifier interface {
	Send(ctx context.Context, notificationType string, recipients []string, data map[string]any) error
}
