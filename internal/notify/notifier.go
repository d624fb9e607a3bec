package notify

import (
	"context"
	"log/slog"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/middleware"
)

// SlogNotifier emits notifications to the structured log. It stands in for a
// real delivery channel (mail, webhook) which is deployment specific.
type SlogNotifier struct{}

func NewSlogNotifier() portssvc.Notifier {
	return &SlogNotifier{}
}

var _ portssvc.Notifier = (*SlogNotifier)(nil)

// Send logs the notification payload at info level.
func (n *SlogNotifier) Send(ctx context.Context, notificationType string, recipients []string, data map[string]any) error {
	middleware.GetLoggerFromCtx(ctx).Info("Notification dispatched",
		slog.String("type", notificationType),
		slog.Any("recipients", recipients),
		slog.Any("data", data),
	)
	return nil
}
