package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_Enqueue(t *testing.T) {
	ch := new(mockChannel)
	publisher := newPublisher(ch, "mail", "company.mail")
	queuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return queuedAt }

	var published amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "mail", "company.mail", false, false, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(5).(amqp.Publishing) }).
		Return(nil)

	err := publisher.Enqueue(context.Background(), company.Message{To: "a@b.com", Subject: "Company deleted", Body: "bye"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.Equal(t, queuedAt, published.Timestamp)

	var payload queue.MailPayload
	require.NoError(t, json.Unmarshal(published.Body, &payload))
	assert.Equal(t, "a@b.com", payload.To)
	assert.Equal(t, "Company deleted", payload.Subject)
	ch.AssertExpectations(t)
}

func TestPublisher_EnqueueWrapsPublishError(t *testing.T) {
	ch := new(mockChannel)
	publisher := newPublisher(ch, "mail", "company.mail")
	boom := errors.New("channel closed")
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)

	err := publisher.Enqueue(context.Background(), company.Message{To: "a@b.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_Close(t *testing.T) {
	ch := new(mockChannel)
	ch.On("Close").Return(nil)

	require.NoError(t, newPublisher(ch, "mail", "company.mail").Close())
	ch.AssertExpectations(t)
}
