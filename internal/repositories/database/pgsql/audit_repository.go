package pgsql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openledger-app/openledger/internal/apperrors"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/middleware"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates the audit trail sink. Events are append-only;
// nothing in the engine reads them back.
func newPgxAuditRepository(pool *pgxpool.Pool) portssvc.AuditSink {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portssvc.AuditSink = (*PgxAuditRepository)(nil)

// Record appends one audit event. The actor is taken from the request
// context when present.
func (r *PgxAuditRepository) Record(ctx context.Context, action, entityType, entityID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal audit details for "+action, err)
	}

	actorID, ok := middleware.GetActorFromCtx(ctx)
	if !ok {
		actorID = "system"
	}

	query := `
		INSERT INTO audit_events (event_id, occurred_at, actor_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	if _, err := r.Pool.Exec(ctx, query,
		uuid.NewString(),
		time.Now().UTC(),
		actorID,
		action,
		entityType,
		entityID,
		payload,
	); err != nil {
		return apperrors.NewAppError(500, "failed to record audit event "+action, err)
	}
	return nil
}
