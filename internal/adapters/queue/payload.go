package queue

import (
	"encoding/json"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/pkg/errors"
)

// MailPayload は送信キューに積むメールの JSON 表現です。配送側はこの形式を読み取ります。
type MailPayload struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// Encode は Message を JSON にします。
func Encode(msg company.Message, queuedAt time.Time) ([]byte, error) {
	b, err := json.Marshal(MailPayload{
		To:       msg.To,
		Subject:  msg.Subject,
		Body:     msg.Body,
		QueuedAt: queuedAt.UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode mail payload")
	}
	return b, nil
}
