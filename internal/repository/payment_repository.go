package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ayoub195/safisaana/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	query := `
		INSERT INTO payments (
			id, amount, currency, customer_id, customer_email,
			course_id, product_id, ebook_id, payment_method, status,
			transaction_id, gateway_ref, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Amount,
		p.Currency,
		p.CustomerID,
		p.CustomerEmail,
		nullString(p.CourseID),
		nullString(p.ProductID),
		nullString(p.EbookID),
		p.PaymentMethod,
		p.Status,
		p.TransactionID,
		p.GatewayRef,
		nullJSON(p.Metadata),
		p.CreatedAt,
		p.UpdatedAt,
	)

	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.PaymentRecord, error) {
	query := `
		SELECT id, amount, currency, customer_id, COALESCE(customer_email, ''),
			   COALESCE(course_id, ''), COALESCE(product_id, ''), COALESCE(ebook_id, ''),
			   payment_method, status, transaction_id, gateway_ref,
			   COALESCE(metadata::text, ''), created_at, updated_at
		FROM payments WHERE id = $1
	`

	p := &models.PaymentRecord{}
	var metadata string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Amount,
		&p.Currency,
		&p.CustomerID,
		&p.CustomerEmail,
		&p.CourseID,
		&p.ProductID,
		&p.EbookID,
		&p.PaymentMethod,
		&p.Status,
		&p.TransactionID,
		&p.GatewayRef,
		&metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if metadata != "" {
		p.Metadata = json.RawMessage(metadata)
	}

	return p, nil
}

// UpdateStatusFrom is the conditional status write the transition engine relies
// on: the row changes only if its status still equals from. The transaction id
// is set only when previously empty, and metadata is replaced only when a new
// payload is supplied. Returns whether the write took effect.
func (r *PaymentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string, metadata json.RawMessage, now time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1,
			transaction_id = CASE WHEN transaction_id = '' THEN $2 ELSE transaction_id END,
			metadata = COALESCE($3::jsonb, metadata),
			updated_at = $4
		WHERE id = $5 AND status = $6
	`

	res, err := r.db.ExecContext(ctx, query, to, transactionID, nullJSON(metadata), now, id, from)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetGatewayRef records the gateway-side identifier assigned at checkout
// initiation (e.g. a Stripe payment intent id).
func (r *PaymentRepository) SetGatewayRef(ctx context.Context, id, ref string) error {
	query := `UPDATE payments SET gateway_ref = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, ref, id)
	return err
}

func (r *PaymentRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]*models.PaymentRecord, error) {
	query := `
		SELECT id, amount, currency, customer_id, COALESCE(customer_email, ''),
			   payment_method, status, transaction_id, created_at, updated_at
		FROM payments
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.PaymentRecord
	for rows.Next() {
		p := &models.PaymentRecord{}
		if err := rows.Scan(
			&p.ID,
			&p.Amount,
			&p.Currency,
			&p.CustomerID,
			&p.CustomerEmail,
			&p.PaymentMethod,
			&p.Status,
			&p.TransactionID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

// ListStalePending returns PENDING payments created before the cutoff, oldest
// first, capped so one sweep cannot monopolize the store.
func (r *PaymentRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*models.PaymentRecord, error) {
	query := `
		SELECT id, amount, currency, customer_id, COALESCE(customer_email, ''),
			   payment_method, status, transaction_id, created_at, updated_at
		FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.PaymentStatusPending, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.PaymentRecord
	for rows.Next() {
		p := &models.PaymentRecord{}
		if err := rows.Scan(
			&p.ID,
			&p.Amount,
			&p.Currency,
			&p.CustomerID,
			&p.CustomerEmail,
			&p.PaymentMethod,
			&p.Status,
			&p.TransactionID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// lib/pq encodes []byte as bytea, so JSON payloads go over as text.
func nullJSON(m json.RawMessage) interface{} {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}
