package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/utils"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
	listingRepo repository.ListingRepository
	payments    PaymentService
	escrow      EscrowService
	notifier    NotificationService
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	listingRepo repository.ListingRepository,
	payments PaymentService,
	escrow EscrowService,
	notifier NotificationService,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		listingRepo: listingRepo,
		payments:    payments,
		escrow:      escrow,
		notifier:    notifier,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, cmd *CreateBookingCommand) (*domain.Booking, error) {
	listing, err := s.listingRepo.GetByID(ctx, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Type != domain.ListingTypeService {
		return nil, domain.NewValidationError("listing_id", "only service listings can be booked directly")
	}
	if !listing.Available {
		return nil, domain.NewValidationError("listing_id", "listing is not available for booking")
	}
	if listing.OwnerID == cmd.ClientID {
		return nil, domain.NewValidationError("listing_id", "cannot book your own listing")
	}

	hours, err := utils.BookingHours(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, domain.NewValidationError("end_time", err.Error())
	}

	booking := &domain.Booking{
		ClientID:         cmd.ClientID,
		ProviderID:       listing.OwnerID,
		ListingID:        listing.ID,
		BookingDate:      cmd.BookingDate,
		StartTime:        cmd.StartTime,
		EndTime:          cmd.EndTime,
		Hours:            hours,
		HourlyRateCents:  listing.HourlyRateCents,
		TotalAmountCents: utils.BookingTotalCents(hours, listing.HourlyRateCents),
		Status:           domain.BookingStatusPending,
		PaymentStatus:    domain.BookingPaymentStatusUnpaid,
		ServiceLocation:  cmd.ServiceLocation,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ProviderID, "New booking request",
		fmt.Sprintf("You have a new booking request for %q on %s.", listing.Title, booking.BookingDate),
		map[string]string{"type": "BOOKING_REQUESTED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Booking created", "booking_id", booking.ID, "client_id", booking.ClientID,
		"provider_id", booking.ProviderID, "total_cents", booking.TotalAmountCents)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != actorID && booking.ProviderID != actorID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) AcceptBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.loadForProvider(ctx, providerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanAccept() {
		return nil, &domain.InvalidStateTransitionError{Event: "accept", From: booking.Status}
	}

	now := time.Now().UTC()
	booking.Status = domain.BookingStatusAccepted
	booking.AcceptedAt = &now
	if err := s.bookingRepo.UpdateStatusFrom(ctx, booking, domain.BookingStatusPending); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ClientID, "Booking accepted",
		fmt.Sprintf("Your booking for %s has been accepted. Please complete payment.", booking.BookingDate),
		map[string]string{"type": "BOOKING_ACCEPTED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Booking accepted", "booking_id", booking.ID, "provider_id", providerID)
	return booking, nil
}

func (s *bookingService) RejectBooking(ctx context.Context, providerID, bookingID int64, reason string) (*domain.Booking, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	booking, err := s.loadForProvider(ctx, providerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanReject() {
		return nil, &domain.InvalidStateTransitionError{Event: "reject", From: booking.Status}
	}

	booking.Status = domain.BookingStatusRejected
	booking.RejectionReason = reason
	if err := s.bookingRepo.UpdateStatusFrom(ctx, booking, domain.BookingStatusPending); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ClientID, "Booking rejected",
		fmt.Sprintf("Your booking for %s was rejected.", booking.BookingDate),
		map[string]string{"type": "BOOKING_REJECTED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Booking rejected", "booking_id", booking.ID, "provider_id", providerID)
	return booking, nil
}

func (s *bookingService) StartBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.loadForProvider(ctx, providerID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanStart() {
		return nil, &domain.InvalidStateTransitionError{Event: "start", From: booking.Status}
	}
	if booking.PaymentStatus != domain.BookingPaymentStatusPaid {
		return nil, domain.NewValidationError("payment_status", "booking must be paid before work starts")
	}

	booking.Status = domain.BookingStatusInProgress
	if err := s.bookingRepo.UpdateStatusFrom(ctx, booking, domain.BookingStatusAccepted); err != nil {
		return nil, err
	}
	logger.Info("Booking started", "booking_id", booking.ID, "provider_id", providerID)
	return booking, nil
}

// CompleteBooking finishes the work and hands the paid funds to the escrow
// core. The escrow record is created idempotently, so a retried completion
// call cannot hold funds twice.
func (s *bookingService) CompleteBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.loadForProvider(ctx, providerID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCompleted {
		// An earlier completion may have failed between the status flip and
		// the escrow insert. The idempotent create backfills the missing
		// record and is a no-op when one already exists.
		if _, err := s.escrow.CreateForCompletedBooking(ctx, booking); err != nil {
			return nil, err
		}
		return booking, nil
	}
	if !booking.CanComplete() {
		return nil, &domain.InvalidStateTransitionError{Event: "complete", From: booking.Status}
	}
	if booking.PaymentStatus != domain.BookingPaymentStatusPaid {
		return nil, domain.NewValidationError("payment_status", "booking must be paid before completion")
	}

	from := booking.Status
	now := time.Now().UTC()
	booking.Status = domain.BookingStatusCompleted
	booking.CompletedAt = &now
	if err := s.bookingRepo.UpdateStatusFrom(ctx, booking, from); err != nil {
		return nil, err
	}

	if _, err := s.escrow.CreateForCompletedBooking(ctx, booking); err != nil {
		// The booking stays completed; a follow-up completion call or the
		// reconcile sweep backfills the record.
		logger.Error("Escrow creation failed after completion", "booking_id", booking.ID, "error", err)
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ClientID, "Booking completed",
		fmt.Sprintf("Your booking for %s has been marked completed.", booking.BookingDate),
		map[string]string{"type": "BOOKING_COMPLETED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Booking completed", "booking_id", booking.ID, "provider_id", providerID)
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actorID, bookingID int64, reason string) (*domain.Booking, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != actorID && booking.ProviderID != actorID {
		return nil, domain.ErrForbidden
	}
	if !booking.CanCancel() {
		return nil, &domain.InvalidStateTransitionError{Event: "cancel", From: booking.Status}
	}

	from := booking.Status
	now := time.Now().UTC()
	booking.Status = domain.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = &actorID
	booking.CancellationReason = reason
	if err := s.bookingRepo.UpdateStatusFrom(ctx, booking, from); err != nil {
		return nil, err
	}

	// Cancellation always succeeds even when the refund does not; a failed
	// refund is flagged on the payment and retried by the sweep job.
	if booking.PaymentStatus == domain.BookingPaymentStatusPaid {
		if err := s.payments.RefundForBooking(ctx, booking.ID, "Booking cancelled"); err != nil {
			logger.Error("Refund on cancellation failed, flagged for retry", "booking_id", booking.ID, "error", err)
		}
	}

	other := booking.ProviderID
	if actorID == booking.ProviderID {
		other = booking.ClientID
	}
	s.notifier.Notify(ctx, other, "Booking cancelled",
		fmt.Sprintf("The booking for %s has been cancelled.", booking.BookingDate),
		map[string]string{"type": "BOOKING_CANCELLED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Booking cancelled", "booking_id", booking.ID, "actor_id", actorID)
	return booking, nil
}

// ReconcileEscrows backfills escrow records for completed paid bookings
// that have none, left behind when a completion call failed after its
// status flip.
func (s *bookingService) ReconcileEscrows(ctx context.Context, limit int64) (int64, error) {
	bookings, err := s.bookingRepo.ListCompletedWithoutEscrow(ctx, limit)
	if err != nil {
		return 0, err
	}

	var created int64
	for i := range bookings {
		b := &bookings[i]
		if _, err := s.escrow.CreateForCompletedBooking(ctx, b); err != nil {
			logger.Warn("Escrow backfill failed", "booking_id", b.ID, "error", err)
			continue
		}
		created++
	}
	if created > 0 {
		logger.Info("Escrow records backfilled", "count", created)
	}
	return created, nil
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", domain.NewValidationError("reason", "a reason is required")
	}
	if len(reason) > 500 {
		return "", domain.NewValidationError("reason", "reason must not exceed 500 characters")
	}
	return reason, nil
}

func (s *bookingService) ListClientBookings(ctx context.Context, clientID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	return s.bookingRepo.ListByClient(ctx, clientID, status, page, pageSize)
}

func (s *bookingService) ListProviderBookings(ctx context.Context, providerID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	return s.bookingRepo.ListByProvider(ctx, providerID, status, page, pageSize)
}

func (s *bookingService) loadForProvider(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != providerID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}
