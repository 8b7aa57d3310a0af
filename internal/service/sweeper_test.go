package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

func TestSweepOnce(t *testing.T) {
	store := newMemStore()
	notifications := &memNotifications{}
	engine, _ := newTestEngine(store, notifications)
	sweeper := NewSweeper(store, engine, time.Minute, 24*time.Hour, zap.NewNop())

	ctx := context.Background()
	now := time.Now().UTC()

	stale := &models.PaymentRecord{
		ID:         "stale-1",
		Amount:     10,
		Currency:   "KES",
		CustomerID: "user-1",
		Status:     models.PaymentStatusPending,
		CreatedAt:  now.Add(-48 * time.Hour),
		UpdatedAt:  now.Add(-48 * time.Hour),
	}
	fresh := &models.PaymentRecord{
		ID:         "fresh-1",
		Amount:     10,
		Currency:   "KES",
		CustomerID: "user-2",
		Status:     models.PaymentStatusPending,
		CreatedAt:  now.Add(-time.Hour),
		UpdatedAt:  now.Add(-time.Hour),
	}
	done := &models.PaymentRecord{
		ID:         "done-1",
		Amount:     10,
		Currency:   "KES",
		CustomerID: "user-3",
		Status:     models.PaymentStatusComplete,
		CreatedAt:  now.Add(-48 * time.Hour),
		UpdatedAt:  now.Add(-48 * time.Hour),
	}
	store.Create(ctx, stale)
	store.Create(ctx, fresh)
	store.Create(ctx, done)

	swept, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce() error = %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	got, _ := store.GetByID(ctx, "stale-1")
	if got.Status != models.PaymentStatusFailed {
		t.Errorf("stale status = %v, want FAILED", got.Status)
	}
	got, _ = store.GetByID(ctx, "fresh-1")
	if got.Status != models.PaymentStatusPending {
		t.Errorf("fresh status = %v, want PENDING", got.Status)
	}
	got, _ = store.GetByID(ctx, "done-1")
	if got.Status != models.PaymentStatusComplete {
		t.Errorf("done status = %v, want COMPLETE", got.Status)
	}

	// The sweep goes through the engine, so the failure notification fires.
	if notifications.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifications.count())
	}

	// A second sweep finds nothing left to do.
	swept, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("second SweepOnce() error = %v", err)
	}
	if swept != 0 {
		t.Errorf("second sweep = %d, want 0", swept)
	}
}
