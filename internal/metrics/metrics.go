package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safisaana_webhook_deliveries_total",
		Help: "Webhook deliveries by outcome (applied, ignored, rejected, invalid_signature, malformed, not_found, error)",
	}, []string{"outcome"})

	TransitionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safisaana_payment_transitions_total",
		Help: "Committed payment status transitions by target status",
	}, []string{"status"})

	CheckoutsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safisaana_checkouts_initiated_total",
		Help: "Checkout initiations by payment method",
	}, []string{"method"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safisaana_notification_failures_total",
		Help: "Notification appends that failed after a committed transition",
	})
)
