package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/service"
)

func jobListing(id, ownerID int64) *domain.Listing {
	return &domain.Listing{
		ID:        id,
		OwnerID:   ownerID,
		Title:     "Weekend garden cleanup",
		Type:      domain.ListingTypeJob,
		Available: true,
	}
}

func TestBidService_PlaceBid(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		notifier := &fakeNotifier{}
		svc := service.NewBidService(bids, listings, notifier)

		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 1), nil)
		bids.On("Create", ctx, mock.MatchedBy(func(b *domain.Bid) bool {
			return b.ListingID == 10 && b.ProviderID == 2 &&
				b.AmountCents == 15000 && b.Status == domain.BidStatusPending
		})).Return(nil)

		bid, err := svc.PlaceBid(ctx, 2, 10, 15000, "Can start Saturday")
		assert.NoError(t, err)
		assert.Equal(t, domain.BidStatusPending, bid.Status)
		assert.Contains(t, notifier.notified, int64(1))
	})

	t.Run("ServiceListingNotBiddable", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		l := jobListing(10, 1)
		l.Type = domain.ListingTypeService
		listings.On("GetByID", ctx, int64(10)).Return(l, nil)

		_, err := svc.PlaceBid(ctx, 2, 10, 15000, "")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("ClosedListingRejected", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		l := jobListing(10, 1)
		l.Available = false
		listings.On("GetByID", ctx, int64(10)).Return(l, nil)

		_, err := svc.PlaceBid(ctx, 2, 10, 15000, "")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("CannotBidOnOwnListing", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 2), nil)

		_, err := svc.PlaceBid(ctx, 2, 10, 15000, "")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("NonPositiveAmountRejected", func(t *testing.T) {
		svc := service.NewBidService(new(MockBidRepo), new(MockListingRepo), &fakeNotifier{})

		_, err := svc.PlaceBid(ctx, 2, 10, 0, "")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestBidService_AcceptBid(t *testing.T) {
	ctx := context.Background()

	pendingBid := func() *domain.Bid {
		return &domain.Bid{
			ID:          7,
			ListingID:   10,
			ProviderID:  2,
			AmountCents: 24000,
			Status:      domain.BidStatusPending,
		}
	}

	t.Run("ConvertsToFlatRateBooking", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		notifier := &fakeNotifier{}
		svc := service.NewBidService(bids, listings, notifier)

		bids.On("GetByID", ctx, int64(7)).Return(pendingBid(), nil)
		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 1), nil)
		bids.On("AcceptAndConvert", ctx, mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.ClientID == 1 && b.ProviderID == 2 &&
				b.TotalAmountCents == 24000 &&
				b.HourlyRateCents == 1000 &&
				b.Status == domain.BookingStatusAccepted &&
				b.PaymentStatus == domain.BookingPaymentStatusUnpaid &&
				b.AcceptedAt != nil
		})).Return(nil)

		bid, booking, err := svc.AcceptBid(ctx, 1, 7)
		assert.NoError(t, err)
		assert.Equal(t, int64(24000), booking.TotalAmountCents)
		assert.Equal(t, bid.ProviderID, booking.ProviderID)
		assert.Contains(t, notifier.notified, int64(2))
	})

	t.Run("OnlyListingOwnerMayAccept", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		bids.On("GetByID", ctx, int64(7)).Return(pendingBid(), nil)
		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 1), nil)

		_, _, err := svc.AcceptBid(ctx, 99, 7)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		bids.AssertNotCalled(t, "AcceptAndConvert", ctx, mock.Anything, mock.Anything)
	})

	t.Run("NonPendingBidRejected", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		b := pendingBid()
		b.Status = domain.BidStatusRejected
		bids.On("GetByID", ctx, int64(7)).Return(b, nil)
		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 1), nil)

		_, _, err := svc.AcceptBid(ctx, 1, 7)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestBidService_ListBidsForListing(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerOnly", func(t *testing.T) {
		bids := new(MockBidRepo)
		listings := new(MockListingRepo)
		svc := service.NewBidService(bids, listings, &fakeNotifier{})

		listings.On("GetByID", ctx, int64(10)).Return(jobListing(10, 1), nil)

		_, err := svc.ListBidsForListing(ctx, 2, 10)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestBidService_ExpireStaleBids(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsBidsOlderThanCutoff", func(t *testing.T) {
		bids := new(MockBidRepo)
		svc := service.NewBidService(bids, new(MockListingRepo), &fakeNotifier{})

		bids.On("RejectStale", ctx, mock.MatchedBy(func(cutoff time.Time) bool {
			return time.Since(cutoff) > 13*24*time.Hour
		})).Return(int64(3), nil)

		expired, err := svc.ExpireStaleBids(ctx, 14*24*time.Hour)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), expired)
	})
}
