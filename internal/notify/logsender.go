package notify

import (
	"context"

	logx "carepilot/pkg/logx"
)

// logSender is the fallback when no Telegram section is configured: fired
// reminders land in the log (and the delivery audit) instead of a chat.
type logSender struct {
	log logx.Logger
}

func NewLogSender(log logx.Logger) Sender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &logSender{log: log}
}

func (s *logSender) Send(ctx context.Context, text string) error {
	s.log.Info("reminder (delivery disabled)", logx.String("text", text))
	return nil
}
