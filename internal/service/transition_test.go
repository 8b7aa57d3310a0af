package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

func newTestEngine(store *memStore, notifications *memNotifications) (*TransitionEngine, *memPublisher) {
	publisher := &memPublisher{}
	notifier := NewNotifier(notifications, nil, zap.NewNop())
	return NewTransitionEngine(store, notifier, publisher, zap.NewNop()), publisher
}

func seedPayment(store *memStore, id string, status models.PaymentStatus, transactionID string) {
	now := time.Now().UTC()
	store.Create(context.Background(), &models.PaymentRecord{
		ID:            id,
		Amount:        19.99,
		Currency:      "USD",
		CustomerID:    "user-1",
		PaymentMethod: models.PaymentMethodMpesa,
		Status:        status,
		TransactionID: transactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func TestApplyValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.PaymentStatus
		to   models.PaymentStatus
	}{
		{"pending to in progress", models.PaymentStatusPending, models.PaymentStatusInProgress},
		{"pending to complete", models.PaymentStatusPending, models.PaymentStatusComplete},
		{"pending to failed", models.PaymentStatusPending, models.PaymentStatusFailed},
		{"in progress to complete", models.PaymentStatusInProgress, models.PaymentStatusComplete},
		{"in progress to failed", models.PaymentStatusInProgress, models.PaymentStatusFailed},
		{"complete to refunded", models.PaymentStatusComplete, models.PaymentStatusRefunded},
		{"complete to disputed", models.PaymentStatusComplete, models.PaymentStatusDisputed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			notifications := &memNotifications{}
			engine, _ := newTestEngine(store, notifications)
			seedPayment(store, "p-1", tt.from, "")

			result, err := engine.Apply(context.Background(), "p-1", tt.to, "tx_1", nil)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if result.Outcome != OutcomeApplied {
				t.Fatalf("Apply() outcome = %v, want %v", result.Outcome, OutcomeApplied)
			}
			if result.Payment.Status != tt.to {
				t.Errorf("status = %v, want %v", result.Payment.Status, tt.to)
			}
			if notifications.count() != 1 {
				t.Errorf("notifications = %d, want 1", notifications.count())
			}
		})
	}
}

func TestApplyInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from models.PaymentStatus
		to   models.PaymentStatus
	}{
		{"complete cannot regress to in progress", models.PaymentStatusComplete, models.PaymentStatusInProgress},
		{"complete cannot regress to pending", models.PaymentStatusComplete, models.PaymentStatusPending},
		{"failed is terminal", models.PaymentStatusFailed, models.PaymentStatusComplete},
		{"refunded is terminal", models.PaymentStatusRefunded, models.PaymentStatusComplete},
		{"disputed is terminal", models.PaymentStatusDisputed, models.PaymentStatusPending},
		{"pending cannot refund", models.PaymentStatusPending, models.PaymentStatusRefunded},
		{"in progress cannot dispute", models.PaymentStatusInProgress, models.PaymentStatusDisputed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			notifications := &memNotifications{}
			engine, _ := newTestEngine(store, notifications)
			seedPayment(store, "p-1", tt.from, "")

			result, err := engine.Apply(context.Background(), "p-1", tt.to, "", nil)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if result.Outcome != OutcomeRejected {
				t.Fatalf("Apply() outcome = %v, want %v", result.Outcome, OutcomeRejected)
			}
			if result.Reason != ReasonInvalidTransition {
				t.Errorf("reason = %q, want %q", result.Reason, ReasonInvalidTransition)
			}

			current, _ := store.GetByID(context.Background(), "p-1")
			if current.Status != tt.from {
				t.Errorf("status mutated to %v, want %v", current.Status, tt.from)
			}
			if notifications.count() != 0 {
				t.Errorf("notifications = %d, want 0", notifications.count())
			}
		})
	}
}

func TestApplyDuplicateDeliveryIsIgnored(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, publisher := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	first, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
	if err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	if first.Outcome != OutcomeApplied {
		t.Fatalf("first outcome = %v, want applied", first.Outcome)
	}

	second, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if second.Outcome != OutcomeIgnored {
		t.Fatalf("second outcome = %v, want ignored", second.Outcome)
	}

	if notifications.count() != 1 {
		t.Errorf("notifications = %d, want exactly 1", notifications.count())
	}
	if len(publisher.events) != 1 {
		t.Errorf("events = %d, want exactly 1", len(publisher.events))
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if current.Status != models.PaymentStatusComplete || current.TransactionID != "tx_1" {
		t.Errorf("record = %v/%v, want COMPLETE/tx_1", current.Status, current.TransactionID)
	}
}

func TestApplyOutOfOrderDelivery(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	ctx := context.Background()

	// COMPLETE, then a stale IN_PROGRESS, then a redelivered COMPLETE.
	if res, _ := engine.Apply(ctx, "p-1", models.PaymentStatusComplete, "tx_1", nil); res.Outcome != OutcomeApplied {
		t.Fatalf("complete outcome = %v, want applied", res.Outcome)
	}
	if res, _ := engine.Apply(ctx, "p-1", models.PaymentStatusInProgress, "", nil); res.Outcome != OutcomeRejected {
		t.Fatalf("stale in-progress outcome = %v, want rejected", res.Outcome)
	}
	if res, _ := engine.Apply(ctx, "p-1", models.PaymentStatusComplete, "tx_1", nil); res.Outcome != OutcomeIgnored {
		t.Fatalf("redelivered complete outcome = %v, want ignored", res.Outcome)
	}

	current, _ := store.GetByID(ctx, "p-1")
	if current.Status != models.PaymentStatusComplete {
		t.Errorf("status = %v, want COMPLETE", current.Status)
	}
	if notifications.count() != 1 {
		t.Errorf("notifications = %d, want exactly 1", notifications.count())
	}
}

func TestApplyTransactionIDImmutable(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusComplete, "tx_1")

	result, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusRefunded, "tx_other", nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", result.Outcome)
	}
	if result.Reason != ReasonTransactionIDMismatch {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonTransactionIDMismatch)
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if current.TransactionID != "tx_1" {
		t.Errorf("transaction id overwritten to %q", current.TransactionID)
	}
	if current.Status != models.PaymentStatusComplete {
		t.Errorf("status mutated to %v", current.Status)
	}
}

func TestApplyRecordNotFound(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)

	_, err := engine.Apply(context.Background(), "missing", models.PaymentStatusComplete, "tx_1", nil)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Apply() error = %v, want ErrRecordNotFound", err)
	}
	if notifications.count() != 0 {
		t.Errorf("notifications = %d, want 0", notifications.count())
	}
}

func TestApplyStoresMetadataAndMessage(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	metadata := json.RawMessage(`{"provider":"intasend","mpesa_reference":"QL123"}`)
	result, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", metadata)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, want applied", result.Outcome)
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if string(current.Metadata) != string(metadata) {
		t.Errorf("metadata = %s, want %s", current.Metadata, metadata)
	}

	if notifications.count() != 1 {
		t.Fatalf("notifications = %d, want 1", notifications.count())
	}
	n := notifications.created[0]
	if n.Type != models.NotificationTypeSuccess {
		t.Errorf("type = %v, want success", n.Type)
	}
	if !strings.Contains(n.Message, "19.99") {
		t.Errorf("message %q does not contain the amount", n.Message)
	}
	if n.Title != "Payment Successful" {
		t.Errorf("title = %q", n.Title)
	}
}

func TestApplyConcurrentDuplicateDeliveries(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, publisher := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	// The gateway redelivers aggressively, so identical COMPLETE events can
	// race each other. The conditional write lets exactly one win; the losers
	// re-read the committed status and land on Ignored.
	const deliveries = 8
	results := make([]*Result, deliveries)
	errs := make([]error, deliveries)

	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
		}(i)
	}
	wg.Wait()

	applied, ignored := 0, 0
	for i := 0; i < deliveries; i++ {
		if errs[i] != nil {
			t.Fatalf("Apply() #%d error = %v", i, errs[i])
		}
		switch results[i].Outcome {
		case OutcomeApplied:
			applied++
		case OutcomeIgnored:
			ignored++
		default:
			t.Fatalf("Apply() #%d outcome = %v", i, results[i].Outcome)
		}
	}

	if applied != 1 {
		t.Errorf("applied = %d, want exactly 1", applied)
	}
	if ignored != deliveries-1 {
		t.Errorf("ignored = %d, want %d", ignored, deliveries-1)
	}
	if notifications.count() != 1 {
		t.Errorf("notifications = %d, want exactly 1", notifications.count())
	}
	if len(publisher.events) != 1 {
		t.Errorf("events = %d, want exactly 1", len(publisher.events))
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if current.Status != models.PaymentStatusComplete || current.TransactionID != "tx_1" {
		t.Errorf("record = %v/%v, want COMPLETE/tx_1", current.Status, current.TransactionID)
	}
}

func TestApplyRetriesLostConditionalWrite(t *testing.T) {
	store := newMemStore()
	store.loseUpdates = 1
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	result, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, want applied after one lost write", result.Outcome)
	}
	if notifications.count() != 1 {
		t.Errorf("notifications = %d, want exactly 1", notifications.count())
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if current.Status != models.PaymentStatusComplete {
		t.Errorf("status = %v, want COMPLETE", current.Status)
	}
}

func TestApplyConflictAfterRetriesExhausted(t *testing.T) {
	store := newMemStore()
	store.loseUpdates = maxApplyAttempts
	notifications := &memNotifications{}
	engine, publisher := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	_, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
	if !errors.Is(err, ErrApplyConflict) {
		t.Fatalf("Apply() error = %v, want ErrApplyConflict", err)
	}
	if notifications.count() != 0 {
		t.Errorf("notifications = %d, want 0 for an uncommitted transition", notifications.count())
	}
	if len(publisher.events) != 0 {
		t.Errorf("events = %d, want 0 for an uncommitted transition", len(publisher.events))
	}
}

func TestApplyNotificationFailureDoesNotUnwindCommit(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{fail: true}
	engine, _ := newTestEngine(store, notifications)
	seedPayment(store, "p-1", models.PaymentStatusPending, "")

	result, err := engine.Apply(context.Background(), "p-1", models.PaymentStatusComplete, "tx_1", nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, want applied", result.Outcome)
	}

	current, _ := store.GetByID(context.Background(), "p-1")
	if current.Status != models.PaymentStatusComplete {
		t.Errorf("status = %v, want COMPLETE despite notification failure", current.Status)
	}
}
