package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

// Envelope is the JSON shape of a payment lifecycle event.
type Envelope struct {
	Type          string  `json:"type"`
	PaymentID     string  `json:"payment_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CustomerID    string  `json:"customer_id"`
	TransactionID string  `json:"transaction_id,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

// KafkaPublisher writes payment events keyed by payment id so per-payment
// ordering is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher for the comma-separated broker list.
// Returns nil when no brokers are configured; callers treat a nil publisher
// as events disabled.
func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) *KafkaPublisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("kafka publisher initialized",
		zap.Strings("brokers", addrs),
		zap.String("topic", topic))

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payment *models.PaymentRecord) error {
	envelope := Envelope{
		Type:          eventType,
		PaymentID:     payment.ID,
		Status:        string(payment.Status),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerID:    payment.CustomerID,
		TransactionID: payment.TransactionID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payment.ID),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
