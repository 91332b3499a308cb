package postgres

import (
	"context"
	"database/sql"
	"errors"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

const paymentColumns = `id, booking_id, client_id, provider_id, amount_cents, platform_fee_cents,
	provider_amount_cents, currency, COALESCE(payment_intent_id, ''), COALESCE(customer_id, ''),
	status, refund_amount_cents, refund_pending, refunded_at, paid_at, created_on, updated_on`

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func scanPayment(row interface{ Scan(...interface{}) error }) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.BookingID, &p.ClientID, &p.ProviderID, &p.AmountCents,
		&p.PlatformFeeCents, &p.ProviderAmountCents, &p.Currency, &p.PaymentIntentID,
		&p.CustomerID, &p.Status, &p.RefundAmountCents, &p.RefundPending, &p.RefundedAt,
		&p.PaidAt, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments
		(booking_id, client_id, provider_id, amount_cents, platform_fee_cents,
		 provider_amount_cents, currency, payment_intent_id, customer_id, status, created_on, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	return r.db.QueryRowContext(ctx, query,
		p.BookingID, p.ClientID, p.ProviderID, p.AmountCents, p.PlatformFeeCents,
		p.ProviderAmountCents, p.Currency, p.PaymentIntentID, p.CustomerID, p.Status,
	).Scan(&p.ID, &p.CreatedOn, &p.UpdatedOn)
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_intent_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, intentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *paymentRepository) GetSucceededByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE booking_id = $1 AND status = 'succeeded'
		ORDER BY created_on DESC LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments
		SET status = $2, payment_intent_id = NULLIF($3, ''), customer_id = NULLIF($4, ''),
		    refund_amount_cents = $5, refund_pending = $6, refunded_at = $7, paid_at = $8,
		    updated_on = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Status, p.PaymentIntentID, p.CustomerID,
		p.RefundAmountCents, p.RefundPending, p.RefundedAt, p.PaidAt)
	return err
}

func (r *paymentRepository) ListRefundPending(ctx context.Context, limit int64) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE refund_pending AND status = 'succeeded'
		ORDER BY updated_on ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
