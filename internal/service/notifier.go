package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/metrics"
	"github.com/ayoub195/safisaana/internal/models"
)

// Notifier produces the user-facing notification for a committed transition.
// It is invoked only from Applied outcomes, so every notification corresponds
// to exactly one effective status change. Appends are best-effort: a failure
// is logged and never unwinds the payment commit.
type Notifier struct {
	store  NotificationStore
	mailer Mailer
	logger *zap.Logger
}

func NewNotifier(store NotificationStore, mailer Mailer, logger *zap.Logger) *Notifier {
	return &Notifier{
		store:  store,
		mailer: mailer,
		logger: logger,
	}
}

func (n *Notifier) Emit(ctx context.Context, payment *models.PaymentRecord) {
	notification := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    payment.CustomerID,
		Title:     notificationTitle(payment.Status),
		Message:   notificationMessage(payment.Status, payment.Currency, payment.Amount),
		Type:      notificationType(payment.Status),
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.store.Create(ctx, notification); err != nil {
		metrics.NotificationFailures.Inc()
		n.logger.Error("failed to append notification",
			zap.String("payment_id", payment.ID),
			zap.String("user_id", payment.CustomerID),
			zap.Error(err))
		return
	}

	if n.mailer != nil && payment.CustomerEmail != "" {
		if err := n.mailer.Send(payment.CustomerEmail, notification.Title, notification.Message); err != nil {
			n.logger.Warn("failed to send notification email",
				zap.String("payment_id", payment.ID),
				zap.Error(err))
		}
	}
}

func notificationTitle(status models.PaymentStatus) string {
	switch status {
	case models.PaymentStatusComplete:
		return "Payment Successful"
	case models.PaymentStatusFailed:
		return "Payment Failed"
	case models.PaymentStatusRefunded:
		return "Payment Refunded"
	case models.PaymentStatusDisputed:
		return "Payment Disputed"
	default:
		return "Payment Update"
	}
}

func notificationMessage(status models.PaymentStatus, currency string, amount float64) string {
	value := formatAmount(amount)
	switch status {
	case models.PaymentStatusComplete:
		return fmt.Sprintf("Your payment of %s %s was successful", currency, value)
	case models.PaymentStatusFailed:
		return fmt.Sprintf("Your payment of %s %s failed", currency, value)
	case models.PaymentStatusRefunded:
		return fmt.Sprintf("Your payment of %s %s has been refunded", currency, value)
	case models.PaymentStatusDisputed:
		return fmt.Sprintf("Your payment of %s %s has been disputed", currency, value)
	default:
		return fmt.Sprintf("Your payment of %s %s status has been updated to %s", currency, value, status)
	}
}

func notificationType(status models.PaymentStatus) models.NotificationType {
	switch status {
	case models.PaymentStatusComplete:
		return models.NotificationTypeSuccess
	case models.PaymentStatusFailed:
		return models.NotificationTypeError
	default:
		return models.NotificationTypeInfo
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
