package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository/postgres"
)

func TestBidRepository_AcceptAndConvert(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	bid := func() *domain.Bid {
		return &domain.Bid{ID: 7, ListingID: 10, ProviderID: 2, AmountCents: 24000, Status: domain.BidStatusPending}
	}
	booking := func() *domain.Booking {
		return &domain.Booking{
			ClientID:         1,
			ProviderID:       2,
			ListingID:        10,
			BookingDate:      now.Format("2006-01-02"),
			StartTime:        now,
			EndTime:          now.Add(24 * time.Hour),
			Hours:            24,
			HourlyRateCents:  1000,
			TotalAmountCents: 24000,
			Status:           domain.BookingStatusAccepted,
			PaymentStatus:    domain.BookingPaymentStatusUnpaid,
			AcceptedAt:       &now,
		}
	}

	t.Run("ClaimsBidAndClosesListing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := postgres.NewBidRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bids SET status = 'accepted'").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE bids SET status = 'rejected'").
			WithArgs(int64(10), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_on", "updated_on"}).
				AddRow(int64(55), now, now))
		mock.ExpectExec("UPDATE listings SET available = false").
			WithArgs(int64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		b, bk := bid(), booking()
		err = repo.AcceptAndConvert(ctx, b, bk)
		assert.NoError(t, err)
		assert.Equal(t, domain.BidStatusAccepted, b.Status)
		assert.Equal(t, int64(55), bk.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyDecidedBidLosesTheRace", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("error opening mock database: %v", err)
		}
		defer db.Close()
		repo := postgres.NewBidRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bids SET status = 'accepted'").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.AcceptAndConvert(ctx, bid(), booking())
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBidRepository_RejectStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewBidRepository(db)
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-14 * 24 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE bids SET status = 'rejected'").
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 3))

		expired, err := repo.RejectStale(ctx, cutoff)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), expired)
	})
}
