package logqueue

import (
	"context"

	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/rs/zerolog"
)

// Notifier は通知メールをログに出力するだけの送信キューです。ローカル開発で使います。
type Notifier struct {
	logger zerolog.Logger
}

var _ company.Notifier = (*Notifier)(nil)

// New は Notifier を生成します。
func New(logger zerolog.Logger) *Notifier {
	return &Notifier{logger: logger.With().Str("component", "mail-queue").Logger()}
}

// Enqueue は件名と宛先を info レベル、本文を debug レベルで記録します。
func (n *Notifier) Enqueue(_ context.Context, msg company.Message) error {
	n.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail enqueued")
	n.logger.Debug().Str("to", msg.To).Str("body", msg.Body).Msg("mail body")
	return nil
}
