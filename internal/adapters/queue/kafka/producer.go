package kafka

import (
	"context"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer は通知メールを Kafka トピックに積みます。
type Producer struct {
	writer messageWriter
	now    func() time.Time
}

var _ company.Notifier = (*Producer)(nil)

// NewProducer は queue.kafka 設定から Producer を生成します。
func NewProducer(cfg config.KafkaConfig) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newProducer(w messageWriter) *Producer {
	return &Producer{writer: w, now: time.Now}
}

// Enqueue はメールを JSON にして書き込みます。宛先をキーにして同じ会社の通知の順序を保ちます。
func (p *Producer) Enqueue(ctx context.Context, msg company.Message) error {
	value, err := queue.Encode(msg, p.now())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}); err != nil {
		return errors.Wrap(err, "kafka: write mail message")
	}
	return nil
}

// Close は writer を閉じます。
func (p *Producer) Close() error {
	return p.writer.Close()
}
