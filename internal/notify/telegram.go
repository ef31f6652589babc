package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "carepilot/pkg/logx"
)

// Sender delivers one rendered reminder text to the configured chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// TelegramConfig configures the send-only Telegram sender.
type TelegramConfig struct {
	Token    string
	ChatID   int64
	ThreadID int
}

// telegramSender wraps telebot for outgoing messages only. No poller is
// configured; the bot never consumes updates.
type telegramSender struct {
	bot      *tele.Bot
	chatID   int64
	threadID int
	log      logx.Logger
}

func NewTelegramSender(cfg TelegramConfig, log logx.Logger) (Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return &telegramSender{bot: b, chatID: cfg.ChatID, threadID: cfg.ThreadID, log: log}, nil
}

func (s *telegramSender) Send(ctx context.Context, text string) error {
	// Bound the call; a wedged send must not hang a scheduler worker.
	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(&tele.Chat{ID: s.chatID}, text, &tele.SendOptions{
			DisableWebPagePreview: true,
			ThreadID:              s.threadID,
		})
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return errors.New("telegram send timed out")
	}
}
