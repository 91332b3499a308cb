package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"

	"github.com/lib/pq"
)

const bidColumns = `id, listing_id, provider_id, amount_cents, COALESCE(message, ''), status, created_on, updated_on`

type bidRepository struct {
	db *sql.DB
}

func NewBidRepository(db *sql.DB) repository.BidRepository {
	return &bidRepository{db: db}
}

func scanBid(row interface{ Scan(...interface{}) error }) (*domain.Bid, error) {
	b := &domain.Bid{}
	err := row.Scan(&b.ID, &b.ListingID, &b.ProviderID, &b.AmountCents, &b.Message, &b.Status,
		&b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create enforces one bid per (listing, provider) via the unique index.
func (r *bidRepository) Create(ctx context.Context, b *domain.Bid) error {
	query := `INSERT INTO bids (listing_id, provider_id, amount_cents, message, status, created_on, updated_on)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query, b.ListingID, b.ProviderID, b.AmountCents, b.Message, b.Status).
		Scan(&b.ID, &b.CreatedOn, &b.UpdatedOn)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return domain.NewValidationError("listing_id", "a bid already exists for this listing")
	}
	return err
}

func (r *bidRepository) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	b, err := scanBid(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *bidRepository) ListByListing(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE listing_id = $1 ORDER BY created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

func (r *bidRepository) ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.Bid, int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM bids WHERE provider_id = $1`, providerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE provider_id = $1
		ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, providerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, 0, err
		}
		bids = append(bids, *b)
	}
	return bids, count, rows.Err()
}

// AcceptAndConvert runs the whole conversion in one transaction. The
// conditional accept update is the claim: a concurrent acceptance on the
// same listing loses with ErrConcurrencyConflict and nothing applied.
func (r *bidRepository) AcceptAndConvert(ctx context.Context, bid *domain.Bid, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = 'accepted', updated_on = NOW() WHERE id = $1 AND status = 'pending'`,
		bid.ID)
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = 'rejected', updated_on = NOW()
		 WHERE listing_id = $1 AND id <> $2 AND status = 'pending'`,
		bid.ListingID, bid.ID); err != nil {
		return err
	}

	bookingQuery := `INSERT INTO bookings
		(client_id, provider_id, listing_id, booking_date, start_time, end_time, hours,
		 hourly_rate_cents, total_amount_cents, status, payment_status, service_location,
		 accepted_at, created_on, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	if err := tx.QueryRowContext(ctx, bookingQuery,
		booking.ClientID, booking.ProviderID, booking.ListingID, booking.BookingDate,
		booking.StartTime, booking.EndTime, booking.Hours, booking.HourlyRateCents,
		booking.TotalAmountCents, booking.Status, booking.PaymentStatus, booking.ServiceLocation,
		booking.AcceptedAt).Scan(&booking.ID, &booking.CreatedOn, &booking.UpdatedOn); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE listings SET available = false, updated_on = NOW() WHERE id = $1`,
		bid.ListingID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	bid.Status = domain.BidStatusAccepted
	return nil
}

func (r *bidRepository) RejectStale(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE bids SET status = 'rejected', updated_on = NOW()
		WHERE status = 'pending' AND created_on < $1
		  AND listing_id IN (SELECT id FROM listings WHERE NOT available OR deleted_on IS NOT NULL)`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
