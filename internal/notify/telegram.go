package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramSender delivers alerts as Telegram messages to a fixed chat.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramSender creates a Telegram sender.
func NewTelegramSender(token string, chatID int64, logger *zap.Logger) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = false

	logger.Info("Telegram sender ready", zap.String("account", api.Self.UserName))

	return &TelegramSender{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

func (t *TelegramSender) Name() string {
	return "telegram"
}

func (t *TelegramSender) Send(_ context.Context, alert Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("💊 %s\n%s", alert.Title, alert.Body))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
