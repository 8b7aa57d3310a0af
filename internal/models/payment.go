package models

import (
	"encoding/json"
	"errors"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusInProgress PaymentStatus = "IN_PROGRESS"
	PaymentStatusComplete   PaymentStatus = "COMPLETE"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusDisputed   PaymentStatus = "DISPUTED"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusInProgress, PaymentStatusComplete,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusDisputed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition is expected from s.
// COMPLETE is not terminal in this sense: it may still move to REFUNDED or
// DISPUTED on an explicit follow-on event.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusDisputed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodMpesa PaymentMethod = "M-PESA"
	PaymentMethodCard  PaymentMethod = "CARD"
)

// PaymentRecord is one checkout attempt. Records are never deleted; the status
// field only moves forward through the engine's transition table.
type PaymentRecord struct {
	ID            string          `json:"id" db:"id"`
	Amount        float64         `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	CustomerID    string          `json:"customer_id" db:"customer_id"`
	CustomerEmail string          `json:"customer_email,omitempty" db:"customer_email"`
	CourseID      string          `json:"course_id,omitempty" db:"course_id"`
	ProductID     string          `json:"product_id,omitempty" db:"product_id"`
	EbookID       string          `json:"ebook_id,omitempty" db:"ebook_id"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transaction_id,omitempty" db:"transaction_id"`
	GatewayRef    string          `json:"gateway_ref,omitempty" db:"gateway_ref"`
	Metadata      json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckoutRequest initiates a payment for exactly one catalog entity.
type CheckoutRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,len=3"`
	CustomerID    string  `json:"customerId" binding:"required"`
	CustomerEmail string  `json:"customerEmail" binding:"omitempty,email"`
	CourseID      string  `json:"courseId"`
	ProductID     string  `json:"productId"`
	EbookID       string  `json:"ebookId"`
	PaymentMethod string  `json:"paymentMethod" binding:"omitempty,oneof=M-PESA CARD"`
}

var ErrSubjectRef = errors.New("exactly one of courseId, productId or ebookId is required")

// SubjectRef validates that the request references exactly one purchasable entity.
func (r *CheckoutRequest) SubjectRef() error {
	n := 0
	for _, id := range []string{r.CourseID, r.ProductID, r.EbookID} {
		if id != "" {
			n++
		}
	}
	if n != 1 {
		return ErrSubjectRef
	}
	return nil
}

// CheckoutResponse carries the record id and the gateway-specific public
// checkout config the client hands to the widget.
type CheckoutResponse struct {
	Success   bool                   `json:"success"`
	PaymentID string                 `json:"paymentId"`
	Config    map[string]interface{} `json:"config"`
}

// WebhookEvent is the gateway's server-to-server status report. The raw body
// is verified before this shape is decoded from it.
type WebhookEvent struct {
	PaymentID     string          `json:"paymentId"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transactionId,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// Validate rejects unknown or incomplete webhook shapes.
func (e *WebhookEvent) Validate() error {
	if e.PaymentID == "" {
		return errors.New("paymentId is required")
	}
	if !e.Status.Valid() {
		return errors.New("unknown status")
	}
	return nil
}

// Database schema
const PaymentSchema = `
CREATE TABLE IF NOT EXISTS payments (
    id VARCHAR(36) PRIMARY KEY,
    amount DECIMAL(19, 4) NOT NULL,
    currency VARCHAR(3) NOT NULL,
    customer_id VARCHAR(128) NOT NULL,
    customer_email VARCHAR(255),
    course_id VARCHAR(36),
    product_id VARCHAR(36),
    ebook_id VARCHAR(36),
    payment_method VARCHAR(20) NOT NULL DEFAULT 'M-PESA',
    status VARCHAR(20) NOT NULL,
    transaction_id VARCHAR(255) NOT NULL DEFAULT '',
    gateway_ref VARCHAR(255) NOT NULL DEFAULT '',
    metadata JSONB,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);
CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments (customer_id);
CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments (created_at);
`
