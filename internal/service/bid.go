package service

import (
	"context"
	"fmt"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/utils"
)

type bidService struct {
	bidRepo     repository.BidRepository
	listingRepo repository.ListingRepository
	notifier    NotificationService
}

func NewBidService(bidRepo repository.BidRepository, listingRepo repository.ListingRepository, notifier NotificationService) BidService {
	return &bidService{bidRepo: bidRepo, listingRepo: listingRepo, notifier: notifier}
}

func (s *bidService) PlaceBid(ctx context.Context, providerID, listingID int64, amountCents int64, message string) (*domain.Bid, error) {
	if amountCents <= 0 {
		return nil, domain.NewValidationError("amount", "bid amount must be positive")
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Type != domain.ListingTypeJob {
		return nil, domain.NewValidationError("listing_id", "bids can only be placed on job listings")
	}
	if !listing.Available {
		return nil, domain.NewValidationError("listing_id", "listing is no longer accepting bids")
	}
	if listing.OwnerID == providerID {
		return nil, domain.NewValidationError("listing_id", "cannot bid on your own listing")
	}

	bid := &domain.Bid{
		ListingID:   listingID,
		ProviderID:  providerID,
		AmountCents: amountCents,
		Message:     message,
		Status:      domain.BidStatusPending,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, listing.OwnerID, "New bid received",
		fmt.Sprintf("A provider bid %d cents on %q.", amountCents, listing.Title),
		map[string]string{"type": "BID_PLACED", "bid_id": fmt.Sprintf("%d", bid.ID)})

	logger.Info("Bid placed", "bid_id", bid.ID, "listing_id", listingID, "provider_id", providerID)
	return bid, nil
}

// AcceptBid converts the winning bid into a paid-rate booking for the job's
// scheduled window. Sibling bids are rejected and the listing closed in the
// same transaction, so only one acceptance per listing can succeed.
func (s *bidService) AcceptBid(ctx context.Context, ownerID, bidID int64) (*domain.Bid, *domain.Booking, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	listing, err := s.listingRepo.GetByID(ctx, bid.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, nil, domain.ErrForbidden
	}
	if bid.Status != domain.BidStatusPending {
		return nil, nil, domain.NewValidationError("bid_id", "bid is no longer pending")
	}

	// A job booking is a flat engagement: the bid amount is the total and
	// the window defaults to a single day starting now.
	now := time.Now().UTC()
	booking := &domain.Booking{
		ClientID:         listing.OwnerID,
		ProviderID:       bid.ProviderID,
		ListingID:        listing.ID,
		BookingDate:      now.Format("2006-01-02"),
		StartTime:        now,
		EndTime:          now.Add(24 * time.Hour),
		Hours:            24,
		HourlyRateCents:  utils.FlatRateCents(bid.AmountCents, 24),
		TotalAmountCents: bid.AmountCents,
		Status:           domain.BookingStatusAccepted,
		PaymentStatus:    domain.BookingPaymentStatusUnpaid,
		ServiceLocation:  listing.Location,
		AcceptedAt:       &now,
	}
	if err := s.bidRepo.AcceptAndConvert(ctx, bid, booking); err != nil {
		return nil, nil, err
	}

	s.notifier.Notify(ctx, bid.ProviderID, "Bid accepted",
		fmt.Sprintf("Your bid on %q was accepted and booking %d created.", listing.Title, booking.ID),
		map[string]string{"type": "BID_ACCEPTED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Bid accepted", "bid_id", bid.ID, "booking_id", booking.ID, "listing_id", listing.ID)
	return bid, booking, nil
}

func (s *bidService) ListBidsForListing(ctx context.Context, ownerID, listingID int64) ([]domain.Bid, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return s.bidRepo.ListByListing(ctx, listingID)
}

func (s *bidService) ListMyBids(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.Bid, int64, error) {
	return s.bidRepo.ListByProvider(ctx, providerID, page, pageSize)
}

func (s *bidService) ExpireStaleBids(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	expired, err := s.bidRepo.RejectStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		logger.Info("Stale bids expired", "count", expired, "cutoff", cutoff)
	}
	return expired, nil
}
