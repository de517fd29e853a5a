package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink posts alerts to one chat through a bot.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSink connects to the Bot API. endpoint may be empty for the
// public API; it is a format string taking the token and method.
func NewTelegramSink(token string, chatID int64, endpoint string, client *http.Client) (*TelegramSink, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram alerts need a bot token and a chat id")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot login: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

// Send posts all alerts of a batch as a single message.
func (s *TelegramSink) Send(ctx context.Context, alerts []Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b strings.Builder
	for i, a := range alerts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.Text())
	}
	msg := tgbotapi.NewMessage(s.chatID, b.String())
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}
