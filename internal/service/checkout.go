package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/metrics"
	"github.com/ayoub195/safisaana/internal/models"
)

// CheckoutWidget builds the public config for the hosted M-PESA checkout UI.
type CheckoutWidget interface {
	Configured() bool
	CheckoutConfig(amount float64, currency, email, apiRef string) map[string]interface{}
}

// CardGateway creates a server-side payment intent for the card channel.
type CardGateway interface {
	Configured() bool
	CreateIntent(ctx context.Context, amount float64, currency, email, apiRef string) (string, map[string]interface{}, error)
}

var (
	ErrRecordCreationFailed = errors.New("payment record creation failed")
	ErrGatewayUnconfigured  = errors.New("payment gateway is not configured")
)

// CheckoutService creates the PENDING payment record and hands back the
// gateway checkout config. The record always exists before any checkout UI is
// shown, so a webhook racing the client callback has something to update.
type CheckoutService struct {
	store  PaymentStore
	cache  IdempotencyCache
	widget CheckoutWidget
	card   CardGateway
	logger *zap.Logger
}

func NewCheckoutService(store PaymentStore, cache IdempotencyCache, widget CheckoutWidget, card CardGateway, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:  store,
		cache:  cache,
		widget: widget,
		card:   card,
		logger: logger,
	}
}

// Start initiates a checkout. A non-empty idempotencyKey replays the response
// of an earlier call with the same key instead of creating a second PENDING
// record.
func (s *CheckoutService) Start(ctx context.Context, req *models.CheckoutRequest, idempotencyKey string) (*models.CheckoutResponse, error) {
	if err := req.SubjectRef(); err != nil {
		return nil, err
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = models.PaymentMethodMpesa
	}

	if idempotencyKey != "" && s.cache != nil {
		if cached, err := s.getIdempotentResponse(ctx, idempotencyKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	switch method {
	case models.PaymentMethodMpesa:
		if s.widget == nil || !s.widget.Configured() {
			return nil, ErrGatewayUnconfigured
		}
	case models.PaymentMethodCard:
		if s.card == nil || !s.card.Configured() {
			return nil, ErrGatewayUnconfigured
		}
	}

	now := time.Now().UTC()
	payment := &models.PaymentRecord{
		ID:            uuid.New().String(),
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		CourseID:      req.CourseID,
		ProductID:     req.ProductID,
		EbookID:       req.EbookID,
		PaymentMethod: method,
		Status:        models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.Create(ctx, payment); err != nil {
		// No record means no checkout UI: a later webhook could never be
		// correlated.
		return nil, fmt.Errorf("%w: %v", ErrRecordCreationFailed, err)
	}

	var config map[string]interface{}
	switch method {
	case models.PaymentMethodCard:
		ref, cardConfig, err := s.card.CreateIntent(ctx, req.Amount, req.Currency, req.CustomerEmail, payment.ID)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetGatewayRef(ctx, payment.ID, ref); err != nil {
			s.logger.Warn("failed to store gateway ref",
				zap.String("payment_id", payment.ID), zap.Error(err))
		}
		config = cardConfig
	default:
		config = s.widget.CheckoutConfig(req.Amount, req.Currency, req.CustomerEmail, payment.ID)
	}

	response := &models.CheckoutResponse{
		Success:   true,
		PaymentID: payment.ID,
		Config:    config,
	}

	if idempotencyKey != "" && s.cache != nil {
		s.cacheIdempotentResponse(ctx, idempotencyKey, response)
	}

	metrics.CheckoutsInitiated.WithLabelValues(string(method)).Inc()
	s.logger.Info("checkout initiated",
		zap.String("payment_id", payment.ID),
		zap.String("method", string(method)),
		zap.Float64("amount", req.Amount),
		zap.String("currency", req.Currency))

	return response, nil
}

// GetPayment retrieves a payment by id.
func (s *CheckoutService) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	return s.store.GetByID(ctx, id)
}

// ListPayments returns payments created inside the period.
func (s *CheckoutService) ListPayments(ctx context.Context, start, end time.Time) ([]*models.PaymentRecord, error) {
	return s.store.ListByPeriod(ctx, start, end)
}

func (s *CheckoutService) getIdempotentResponse(ctx context.Context, key string) (*models.CheckoutResponse, error) {
	data, err := s.cache.Get(ctx, "checkout:"+key)
	if err != nil {
		return nil, err
	}

	var response models.CheckoutResponse
	if err := json.Unmarshal([]byte(data), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (s *CheckoutService) cacheIdempotentResponse(ctx context.Context, key string, response *models.CheckoutResponse) {
	data, _ := json.Marshal(response)
	if err := s.cache.Set(ctx, "checkout:"+key, data, 24*time.Hour); err != nil {
		s.logger.Warn("failed to cache checkout response", zap.Error(err))
	}
}
