package company

import "context"

// Event は通知対象となるライフサイクル上の変更です。
type Event string

const (
	EventCreated       Event = "created"
	EventUpdated       Event = "updated"
	EventActiveChanged Event = "active-changed"
	EventDeleted       Event = "deleted"
)

// Message は送信キューに積むメールです。
type Message struct {
	To      string
	Subject string
	Body    string
}

// Composer は変更内容から通知メールを組み立てます(翻訳とテンプレート描画を担います)。
type Composer interface {
	Compose(ctx context.Context, event Event, company *Company) (Message, error)
}

// Notifier は通知メールを送信キューに積みます。配送は扱いません。
type Notifier interface {
	Enqueue(ctx context.Context, msg Message) error
}
