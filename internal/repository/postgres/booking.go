package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

const bookingColumns = `id, client_id, provider_id, listing_id, booking_date, start_time, end_time,
	hours, hourly_rate_cents, total_amount_cents, status, payment_status,
	COALESCE(service_location, ''), accepted_at, completed_at, cancelled_at, cancelled_by,
	COALESCE(cancellation_reason, ''), COALESCE(rejection_reason, ''), created_on, updated_on, deleted_on`

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(row interface{ Scan(...interface{}) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(&b.ID, &b.ClientID, &b.ProviderID, &b.ListingID, &b.BookingDate, &b.StartTime,
		&b.EndTime, &b.Hours, &b.HourlyRateCents, &b.TotalAmountCents, &b.Status, &b.PaymentStatus,
		&b.ServiceLocation, &b.AcceptedAt, &b.CompletedAt, &b.CancelledAt, &b.CancelledBy,
		&b.CancellationReason, &b.RejectionReason, &b.CreatedOn, &b.UpdatedOn, &b.DeletedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings
		(client_id, provider_id, listing_id, booking_date, start_time, end_time, hours,
		 hourly_rate_cents, total_amount_cents, status, payment_status, service_location,
		 accepted_at, created_on, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	return r.db.QueryRowContext(ctx, query,
		b.ClientID, b.ProviderID, b.ListingID, b.BookingDate, b.StartTime, b.EndTime, b.Hours,
		b.HourlyRateCents, b.TotalAmountCents, b.Status, b.PaymentStatus, b.ServiceLocation,
		b.AcceptedAt).Scan(&b.ID, &b.CreatedOn, &b.UpdatedOn)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND deleted_on IS NULL`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings
		SET status = $2, payment_status = $3, accepted_at = $4, completed_at = $5,
		    cancelled_at = $6, cancelled_by = $7, cancellation_reason = NULLIF($8, ''),
		    rejection_reason = NULLIF($9, ''), updated_on = NOW()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Status, b.PaymentStatus, b.AcceptedAt,
		b.CompletedAt, b.CancelledAt, b.CancelledBy, b.CancellationReason, b.RejectionReason)
	return err
}

// UpdateStatusFrom writes the full mutable field set but only if the row is
// still in the expected prior status, so concurrent lifecycle calls cannot
// both win.
func (r *bookingRepository) UpdateStatusFrom(ctx context.Context, b *domain.Booking, from domain.BookingStatus) error {
	query := `UPDATE bookings
		SET status = $2, payment_status = $3, accepted_at = $4, completed_at = $5,
		    cancelled_at = $6, cancelled_by = $7, cancellation_reason = NULLIF($8, ''),
		    rejection_reason = NULLIF($9, ''), updated_on = NOW()
		WHERE id = $1 AND status = $10`
	res, err := r.db.ExecContext(ctx, query, b.ID, b.Status, b.PaymentStatus, b.AcceptedAt,
		b.CompletedAt, b.CancelledAt, b.CancelledBy, b.CancellationReason, b.RejectionReason, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

func (r *bookingRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET deleted_on = NOW(), updated_on = NOW() WHERE id = $1 AND deleted_on IS NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) ListCompletedWithoutEscrow(ctx context.Context, limit int64) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = 'completed' AND payment_status = 'paid' AND deleted_on IS NULL
		  AND NOT EXISTS (SELECT 1 FROM withdrawal_requests wr WHERE wr.booking_id = bookings.id)
		ORDER BY completed_at ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListByClient(ctx context.Context, clientID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	return r.list(ctx, "client_id", clientID, status, page, pageSize)
}

func (r *bookingRepository) ListByProvider(ctx context.Context, providerID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	return r.list(ctx, "provider_id", providerID, status, page, pageSize)
}

func (r *bookingRepository) list(ctx context.Context, column string, userID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	where := fmt.Sprintf("WHERE %s = $1 AND deleted_on IS NULL", column)
	args := []interface{}{userID}
	idx := 2
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM bookings "+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := "SELECT " + bookingColumns + " FROM bookings " + where +
		fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}
