package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/models"
)

func validCheckoutRequest() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		Amount:     19.99,
		Currency:   "USD",
		CustomerID: "user-1",
		CourseID:   "course-1",
	}
}

func TestStartCreatesPendingRecordBeforeConfig(t *testing.T) {
	store := newMemStore()
	svc := NewCheckoutService(store, nil, &fakeWidget{configured: true}, nil, zap.NewNop())

	response, err := svc.Start(context.Background(), validCheckoutRequest(), "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !response.Success || response.PaymentID == "" {
		t.Fatalf("response = %+v, want success with payment id", response)
	}

	payment, _ := store.GetByID(context.Background(), response.PaymentID)
	if payment == nil {
		t.Fatal("no payment record created")
	}
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("status = %v, want PENDING", payment.Status)
	}
	if got := response.Config["api_ref"]; got != response.PaymentID {
		t.Errorf("api_ref = %v, want the payment id %q", got, response.PaymentID)
	}
}

func TestStartSubjectRefValidation(t *testing.T) {
	store := newMemStore()
	svc := NewCheckoutService(store, nil, &fakeWidget{configured: true}, nil, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*models.CheckoutRequest)
	}{
		{"no subject", func(r *models.CheckoutRequest) { r.CourseID = "" }},
		{"two subjects", func(r *models.CheckoutRequest) { r.ProductID = "product-1" }},
		{"three subjects", func(r *models.CheckoutRequest) { r.ProductID = "product-1"; r.EbookID = "ebook-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckoutRequest()
			tt.mutate(req)
			_, err := svc.Start(context.Background(), req, "")
			if !errors.Is(err, models.ErrSubjectRef) {
				t.Errorf("Start() error = %v, want ErrSubjectRef", err)
			}
		})
	}
}

func TestStartRecordCreationFailure(t *testing.T) {
	store := newMemStore()
	store.failCreate = true
	svc := NewCheckoutService(store, nil, &fakeWidget{configured: true}, nil, zap.NewNop())

	_, err := svc.Start(context.Background(), validCheckoutRequest(), "")
	if !errors.Is(err, ErrRecordCreationFailed) {
		t.Fatalf("Start() error = %v, want ErrRecordCreationFailed", err)
	}
	if len(store.payments) != 0 {
		t.Errorf("payments created = %d, want 0", len(store.payments))
	}
}

func TestStartGatewayUnconfigured(t *testing.T) {
	store := newMemStore()
	svc := NewCheckoutService(store, nil, &fakeWidget{configured: false}, nil, zap.NewNop())

	_, err := svc.Start(context.Background(), validCheckoutRequest(), "")
	if !errors.Is(err, ErrGatewayUnconfigured) {
		t.Fatalf("Start() error = %v, want ErrGatewayUnconfigured", err)
	}
	// The record must not exist either: nothing to correlate without a gateway.
	if len(store.payments) != 0 {
		t.Errorf("payments created = %d, want 0", len(store.payments))
	}
}

func TestStartIdempotencyKeyReplaysResponse(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	svc := NewCheckoutService(store, cache, &fakeWidget{configured: true}, nil, zap.NewNop())

	first, err := svc.Start(context.Background(), validCheckoutRequest(), "key-1")
	if err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	second, err := svc.Start(context.Background(), validCheckoutRequest(), "key-1")
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if second.PaymentID != first.PaymentID {
		t.Errorf("replayed payment id = %q, want %q", second.PaymentID, first.PaymentID)
	}
	if len(store.payments) != 1 {
		t.Errorf("payments created = %d, want 1", len(store.payments))
	}
}

func TestStartCardChannel(t *testing.T) {
	store := newMemStore()
	card := &fakeCard{configured: true, ref: "pi_123"}
	svc := NewCheckoutService(store, nil, &fakeWidget{configured: true}, card, zap.NewNop())

	req := validCheckoutRequest()
	req.PaymentMethod = "CARD"

	response, err := svc.Start(context.Background(), req, "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := response.Config["payment_method"]; got != "CARD" {
		t.Errorf("payment_method = %v, want CARD", got)
	}

	payment, _ := store.GetByID(context.Background(), response.PaymentID)
	if payment.GatewayRef != "pi_123" {
		t.Errorf("gateway ref = %q, want pi_123", payment.GatewayRef)
	}
	if payment.PaymentMethod != models.PaymentMethodCard {
		t.Errorf("method = %v, want CARD", payment.PaymentMethod)
	}
}
