package rabbitmq

import (
	"context"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher は通知メールを RabbitMQ の exchange に積みます。
type Publisher struct {
	ch         channel
	conn       *amqp.Connection
	exchange   string
	routingKey string
	now        func() time.Time
}

var _ company.Notifier = (*Publisher)(nil)

// Dial は queue.rabbitmq 設定で接続し、Publisher を生成します。
func Dial(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq: dial")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "rabbitmq: open channel")
	}

	p := newPublisher(ch, cfg.Exchange, cfg.RoutingKey)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange, routingKey string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, routingKey: routingKey, now: time.Now}
}

// Enqueue はメールを永続メッセージとして publish します。
func (p *Publisher) Enqueue(ctx context.Context, msg company.Message) error {
	now := p.now()
	body, err := queue.Encode(msg, now)
	if err != nil {
		return err
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    now,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return errors.Wrap(err, "rabbitmq: publish mail message")
	}
	return nil
}

// Close はチャネルと接続を閉じます。
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cErr := p.conn.Close(); err == nil {
			err = cErr
		}
	}
	return err
}
