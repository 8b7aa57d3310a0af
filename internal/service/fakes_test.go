package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ayoub195/safisaana/internal/models"
)

// memStore is an in-memory PaymentStore with the same conditional-update
// semantics as the Postgres repository.
type memStore struct {
	mu         sync.Mutex
	payments   map[string]*models.PaymentRecord
	failCreate bool
	failUpdate bool
	// loseUpdates makes the next N conditional updates report no row changed,
	// as if a concurrent writer won the race each time.
	loseUpdates int
}

func newMemStore() *memStore {
	return &memStore{payments: map[string]*models.PaymentRecord{}}
}

func (s *memStore) Create(ctx context.Context, p *models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store unavailable")
	}
	clone := *p
	s.payments[p.ID] = &clone
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (s *memStore) UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string, metadata json.RawMessage, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return false, errors.New("store unavailable")
	}
	if s.loseUpdates > 0 {
		s.loseUpdates--
		return false, nil
	}
	p, ok := s.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if p.TransactionID == "" {
		p.TransactionID = transactionID
	}
	if len(metadata) > 0 {
		p.Metadata = metadata
	}
	p.UpdatedAt = now
	return true, nil
}

func (s *memStore) SetGatewayRef(ctx context.Context, id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		p.GatewayRef = ref
	}
	return nil
}

func (s *memStore) ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PaymentRecord
	for _, p := range s.payments {
		if !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memStore) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PaymentRecord
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusPending && p.CreatedAt.Before(before) && len(out) < limit {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memNotifications struct {
	mu      sync.Mutex
	created []*models.Notification
	fail    bool
}

func (s *memNotifications) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	clone := *n
	s.created = append(s.created, &clone)
	return nil
}

func (s *memNotifications) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.values[key] = string(v)
	case string:
		c.values[key] = v
	}
	return nil
}

type fakeWidget struct {
	configured bool
}

func (w *fakeWidget) Configured() bool {
	return w.configured
}

func (w *fakeWidget) CheckoutConfig(amount float64, currency, email, apiRef string) map[string]interface{} {
	return map[string]interface{}{
		"api_ref":        apiRef,
		"currency":       currency,
		"payment_method": "M-PESA",
	}
}

type fakeCard struct {
	configured bool
	ref        string
}

func (g *fakeCard) Configured() bool {
	return g.configured
}

func (g *fakeCard) CreateIntent(ctx context.Context, amount float64, currency, email, apiRef string) (string, map[string]interface{}, error) {
	return g.ref, map[string]interface{}{"payment_method": "CARD", "api_ref": apiRef}, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *memPublisher) Publish(ctx context.Context, eventType string, payment *models.PaymentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}
