package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayoub195/safisaana/internal/models"
)

// PaymentStore is the durable record of payment attempts. GetByID returns
// (nil, nil) for an unknown id. UpdateStatusFrom is a conditional write: it
// succeeds only if the record's status still equals from, which is what makes
// concurrent webhook deliveries safe without locks.
type PaymentStore interface {
	Create(ctx context.Context, p *models.PaymentRecord) error
	GetByID(ctx context.Context, id string) (*models.PaymentRecord, error)
	UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string, metadata json.RawMessage, now time.Time) (bool, error)
	SetGatewayRef(ctx context.Context, id, ref string) error
	ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.PaymentRecord, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*models.PaymentRecord, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EventPublisher carries payment lifecycle events to downstream consumers.
// Publishing is best-effort: a failed publish never affects the committed
// status transition.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payment *models.PaymentRecord) error
}

type Mailer interface {
	Send(to, subject, body string) error
}

// IdempotencyCache replays checkout responses for retried initiation calls.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
