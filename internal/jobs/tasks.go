package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/middleware"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReversalSweep is the task type for the auto-reversal sweep.
	TaskTypeReversalSweep = "reversal:sweep"
)

// SweepPayload carries the sweep cutoff. Zero AsOf means "time of execution",
// which is what the scheduled task uses.
type SweepPayload struct {
	AsOf time.Time `json:"asOf"`
}

// NewSweepTask constructs an auto-reversal sweep task.
func NewSweepTask(payload SweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReversalSweep, data), nil
}

// NewSweepHandler builds the asynq handler that runs the sweep through the
// reversal service. Sweep errors are returned so asynq retries the task;
// per-entry failures inside a sweep are already isolated by the service and
// only logged here.
func NewSweepHandler(reversalSvc portssvc.ReversalSvcFacade, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("Invalid sweep task payload", slog.String("error", err.Error()))
			return asynq.SkipRetry
		}
		asOf := payload.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}

		ctx = middleware.ContextWithLogger(ctx, logger)
		result, err := reversalSvc.RunAutoReversalSweep(ctx, asOf)
		if err != nil {
			logger.Error("Auto-reversal sweep failed", slog.String("error", err.Error()))
			return err
		}

		logger.Info("Auto-reversal sweep completed",
			slog.Time("as_of", asOf),
			slog.Int("processed", result.Processed),
			slog.Int("successful", result.Successful),
			slog.Int("failed", result.Failed))
		return nil
	}
}
