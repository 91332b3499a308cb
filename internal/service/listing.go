package service

import (
	"context"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository"
)

type listingService struct {
	listingRepo repository.ListingRepository
}

func NewListingService(listingRepo repository.ListingRepository) ListingService {
	return &listingService{listingRepo: listingRepo}
}

func (s *listingService) CreateListing(ctx context.Context, listing *domain.Listing) error {
	if listing.Title == "" {
		return domain.NewValidationError("title", "title is required")
	}
	switch listing.Type {
	case domain.ListingTypeService, domain.ListingTypeJob:
	default:
		return domain.NewValidationError("type", "must be service or job")
	}
	if listing.Type == domain.ListingTypeService && listing.HourlyRateCents <= 0 {
		return domain.NewValidationError("hourly_rate", "service listings require a positive hourly rate")
	}

	listing.Available = true
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return err
	}
	logger.Info("Listing created", "listing_id", listing.ID, "owner_id", listing.OwnerID, "type", listing.Type)
	return nil
}

func (s *listingService) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	return s.listingRepo.GetByID(ctx, id)
}

func (s *listingService) UpdateListing(ctx context.Context, ownerID int64, listing *domain.Listing) error {
	existing, err := s.listingRepo.GetByID(ctx, listing.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	// Ownership and type are immutable.
	listing.OwnerID = existing.OwnerID
	listing.Type = existing.Type
	return s.listingRepo.Update(ctx, listing)
}

func (s *listingService) DeleteListing(ctx context.Context, actorID, listingID int64, isAdmin bool) error {
	existing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !isAdmin && existing.OwnerID != actorID {
		return domain.ErrForbidden
	}
	if err := s.listingRepo.SoftDelete(ctx, listingID); err != nil {
		return err
	}
	logger.Info("Listing deleted", "listing_id", listingID, "actor_id", actorID)
	return nil
}

func (s *listingService) ListListings(ctx context.Context, listingType domain.ListingType, category string, page, pageSize int64) ([]domain.Listing, int64, error) {
	return s.listingRepo.List(ctx, listingType, category, page, pageSize)
}

func (s *listingService) ListMyListings(ctx context.Context, ownerID int64, page, pageSize int64) ([]domain.Listing, int64, error) {
	return s.listingRepo.ListByOwner(ctx, ownerID, page, pageSize)
}
