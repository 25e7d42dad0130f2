package notifier

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/config"
)

// Notifier delivers short status messages to the bakery staff.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Module provides the notifier to the Fx graph.
var Module = fx.Provide(New)

// New initialises the configured notifier (telegram when enabled, noop otherwise).
func New(cfg config.Config, logger *zap.Logger) (Notifier, error) {
	if cfg.Notifications.Telegram.Enabled {
		return newTelegramNotifier(cfg.Notifications.Telegram, logger)
	}
	if logger != nil {
		logger.Info("staff notifications disabled; using noop notifier")
	}
	return noopNotifier{}, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) error {
	return nil
}
