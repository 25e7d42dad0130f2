package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/config"
)

type telegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func newTelegramNotifier(cfg config.Telegram, logger *zap.Logger) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	if logger != nil {
		logger.Info("telegram notifier connected",
			zap.String("bot", bot.Self.UserName),
			zap.Int64("chat_id", cfg.ChatID),
		)
	}
	return &telegramNotifier{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

func (n *telegramNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, message)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
