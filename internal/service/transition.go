package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/metrics"
	"github.com/ayoub195/safisaana/internal/models"
)

type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeIgnored  Outcome = "ignored"
	OutcomeRejected Outcome = "rejected"
)

const (
	ReasonInvalidTransition     = "invalid-transition"
	ReasonTransactionIDMismatch = "transaction-id-mismatch"
)

// Result describes what a proposed transition did. Payment reflects the record
// after the call.
type Result struct {
	Outcome Outcome
	Reason  string
	Payment *models.PaymentRecord
}

var (
	ErrRecordNotFound = errors.New("payment record not found")
	ErrApplyConflict  = errors.New("status write conflict not resolved")
)

// validTransitions is the full forward-only table. Anything not listed is
// rejected; a proposal equal to the current status is an idempotent duplicate.
var validTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending:    {models.PaymentStatusInProgress, models.PaymentStatusComplete, models.PaymentStatusFailed},
	models.PaymentStatusInProgress: {models.PaymentStatusComplete, models.PaymentStatusFailed},
	models.PaymentStatusComplete:   {models.PaymentStatusRefunded, models.PaymentStatusDisputed},
}

func canTransition(from, to models.PaymentStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const maxApplyAttempts = 3

// TransitionEngine commits payment status changes. It is the only mutator of
// PaymentRecord.status. Webhook delivery is at-least-once and unordered, so
// Apply must be safe to call any number of times in any order: duplicates are
// ignored, stale events are rejected, and the notifier fires exactly once per
// committed transition.
type TransitionEngine struct {
	store    PaymentStore
	notifier *Notifier
	events   EventPublisher
	logger   *zap.Logger
}

func NewTransitionEngine(store PaymentStore, notifier *Notifier, events EventPublisher, logger *zap.Logger) *TransitionEngine {
	return &TransitionEngine{
		store:    store,
		notifier: notifier,
		events:   events,
		logger:   logger,
	}
}

// Apply proposes a status for a payment. The caller is responsible for having
// authenticated the proposal (signature-verified webhook, or the restricted
// client-hint path). The conditional store write arbitrates racing deliveries:
// the loser re-reads and re-evaluates, normally landing on Ignored.
func (e *TransitionEngine) Apply(ctx context.Context, paymentID string, proposed models.PaymentStatus, transactionID string, metadata json.RawMessage) (*Result, error) {
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		payment, err := e.store.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if payment == nil {
			return nil, ErrRecordNotFound
		}

		if payment.Status == proposed {
			if transactionID != "" && payment.TransactionID != "" && transactionID != payment.TransactionID {
				e.logger.Warn("duplicate delivery carries a different transaction id",
					zap.String("payment_id", paymentID),
					zap.String("stored", payment.TransactionID),
					zap.String("received", transactionID))
			}
			return &Result{Outcome: OutcomeIgnored, Payment: payment}, nil
		}

		if !canTransition(payment.Status, proposed) {
			e.logger.Warn("invalid transition proposed",
				zap.String("payment_id", paymentID),
				zap.String("from", string(payment.Status)),
				zap.String("to", string(proposed)))
			return &Result{Outcome: OutcomeRejected, Reason: ReasonInvalidTransition, Payment: payment}, nil
		}

		// transactionId is immutable once set. A conflicting id is a
		// data-integrity alarm, never a silent overwrite.
		if payment.TransactionID != "" && transactionID != "" && transactionID != payment.TransactionID {
			e.logger.Error("transaction id mismatch",
				zap.String("payment_id", paymentID),
				zap.String("stored", payment.TransactionID),
				zap.String("received", transactionID))
			return &Result{Outcome: OutcomeRejected, Reason: ReasonTransactionIDMismatch, Payment: payment}, nil
		}

		ok, err := e.store.UpdateStatusFrom(ctx, paymentID, payment.Status, proposed, transactionID, metadata, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a read-modify-write race; re-read and re-evaluate.
			continue
		}

		payment.Status = proposed
		if payment.TransactionID == "" {
			payment.TransactionID = transactionID
		}
		if len(metadata) > 0 {
			payment.Metadata = metadata
		}
		payment.UpdatedAt = time.Now().UTC()

		metrics.TransitionsApplied.WithLabelValues(string(proposed)).Inc()
		e.notifier.Emit(ctx, payment)
		e.publish(ctx, payment)

		return &Result{Outcome: OutcomeApplied, Payment: payment}, nil
	}

	return nil, ErrApplyConflict
}

func (e *TransitionEngine) publish(ctx context.Context, payment *models.PaymentRecord) {
	if e.events == nil {
		return
	}
	eventType := "payment." + strings.ToLower(string(payment.Status))
	if err := e.events.Publish(ctx, eventType, payment); err != nil {
		e.logger.Warn("failed to publish payment event",
			zap.String("payment_id", payment.ID),
			zap.String("event", eventType),
			zap.Error(err))
	}
}
