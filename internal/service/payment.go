package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/processor"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/utils"
)

type PaymentConfig struct {
	MinChargeCents int64
	Currency       string
	ClientFeeBps   int64
	ProviderFeeBps int64
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	proc        processor.PaymentProcessor
	notifier    NotificationService
	cfg         PaymentConfig
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	proc processor.PaymentProcessor,
	notifier NotificationService,
	cfg PaymentConfig,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		proc:        proc,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// CreateIntent opens a charge for an accepted, unpaid booking. The client
// secret is returned alongside the stored payment.
func (s *paymentService) CreateIntent(ctx context.Context, clientID, bookingID int64) (*domain.Payment, string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.ClientID != clientID {
		return nil, "", domain.ErrForbidden
	}
	if booking.Status != domain.BookingStatusAccepted {
		return nil, "", &domain.InvalidStateTransitionError{Event: "pay for", From: booking.Status}
	}
	if booking.PaymentStatus == domain.BookingPaymentStatusPaid {
		return nil, "", domain.NewValidationError("booking_id", "booking is already paid")
	}

	// The client pays the gross amount plus the client-side service fee.
	fees, err := utils.CalculateFeesBps(booking.TotalAmountCents, s.cfg.ClientFeeBps, s.cfg.ProviderFeeBps)
	if err != nil {
		return nil, "", domain.NewValidationError("total_amount", err.Error())
	}
	chargeCents := fees.ClientTotalChargeCents
	if chargeCents < s.cfg.MinChargeCents {
		return nil, "", domain.NewValidationError("amount",
			fmt.Sprintf("charge must be at least %d cents", s.cfg.MinChargeCents))
	}

	intent, err := s.proc.CreateIntent(ctx, chargeCents, s.cfg.Currency,
		fmt.Sprintf("client-%d", clientID),
		map[string]string{"booking_id": fmt.Sprintf("%d", booking.ID)})
	if err != nil {
		return nil, "", &domain.PaymentProcessorError{Op: "create intent", Err: err}
	}

	payment := &domain.Payment{
		BookingID:           booking.ID,
		ClientID:            booking.ClientID,
		ProviderID:          booking.ProviderID,
		AmountCents:         chargeCents,
		PlatformFeeCents:    fees.PlatformFeeTotalCents,
		ProviderAmountCents: fees.NetProviderAmountCents,
		Currency:            s.cfg.Currency,
		PaymentIntentID:     intent.ID,
		Status:              domain.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, "", err
	}

	logger.Info("Payment intent created", "payment_id", payment.ID, "booking_id", booking.ID,
		"amount_cents", chargeCents, "intent_id", intent.ID)
	return payment, intent.ClientSecret, nil
}

func (s *paymentService) ConfirmIntent(ctx context.Context, clientID, paymentID int64, methodRef string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.ClientID != clientID {
		return nil, domain.ErrForbidden
	}
	if payment.Status == domain.PaymentStatusSucceeded {
		return payment, nil
	}
	if payment.Status != domain.PaymentStatusPending && payment.Status != domain.PaymentStatusRequiresAction {
		return nil, domain.NewValidationError("payment_id", "payment is not confirmable in its current state")
	}

	intent, err := s.proc.ConfirmIntent(ctx, payment.PaymentIntentID, methodRef)
	if err != nil {
		return nil, &domain.PaymentProcessorError{Op: "confirm intent", Err: err}
	}

	switch intent.Status {
	case processor.IntentStatusSucceeded:
		if err := s.settleSucceeded(ctx, payment); err != nil {
			return nil, err
		}
	case processor.IntentStatusRequiresAction:
		payment.Status = domain.PaymentStatusRequiresAction
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return nil, err
		}
	case processor.IntentStatusFailed:
		payment.Status = domain.PaymentStatusFailed
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

// HandleWebhook applies a processor event. Duplicate deliveries are no-ops
// because a payment already in the event's terminal state is left untouched.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.proc.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return &domain.PaymentProcessorError{Op: "verify webhook", Err: err}
	}

	payment, err := s.paymentRepo.GetByIntentID(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Events for intents we never issued are acknowledged so the
			// processor stops redelivering them.
			logger.Warn("Webhook for unknown intent", "intent_id", event.IntentID, "event_type", event.Type)
			return nil
		}
		return err
	}

	switch event.Type {
	case processor.EventIntentSucceeded:
		if payment.Status == domain.PaymentStatusSucceeded {
			logger.Debug("Duplicate success webhook ignored", "payment_id", payment.ID)
			return nil
		}
		return s.settleSucceeded(ctx, payment)
	case processor.EventIntentFailed:
		if payment.Status == domain.PaymentStatusSucceeded || payment.Status == domain.PaymentStatusFailed {
			return nil
		}
		payment.Status = domain.PaymentStatusFailed
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}
		s.notifier.Notify(ctx, payment.ClientID, "Payment failed",
			"Your payment could not be processed. Please try again.",
			map[string]string{"type": "PAYMENT_FAILED", "payment_id": fmt.Sprintf("%d", payment.ID)})
		return nil
	default:
		logger.Debug("Unhandled webhook event type", "event_type", event.Type)
		return nil
	}
}

func (s *paymentService) settleSucceeded(ctx context.Context, payment *domain.Payment) error {
	now := time.Now().UTC()
	payment.Status = domain.PaymentStatusSucceeded
	payment.PaidAt = &now
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return err
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = domain.BookingPaymentStatusPaid
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return err
	}

	s.notifier.Notify(ctx, payment.ProviderID, "Booking paid",
		fmt.Sprintf("Booking %d has been paid in full.", booking.ID),
		map[string]string{"type": "PAYMENT_SUCCEEDED", "booking_id": fmt.Sprintf("%d", booking.ID)})

	logger.Info("Payment succeeded", "payment_id", payment.ID, "booking_id", booking.ID)
	return nil
}

// RefundForBooking refunds the booking's succeeded payment in full. When the
// processor call fails the payment is flagged refund_pending and the caller's
// flow continues; the retry job finishes the refund later.
func (s *paymentService) RefundForBooking(ctx context.Context, bookingID int64, reason string) error {
	payment, err := s.paymentRepo.GetSucceededByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.refund(ctx, payment, reason)
}

func (s *paymentService) refund(ctx context.Context, payment *domain.Payment, reason string) error {
	if !payment.CanRefund(payment.AmountCents) {
		return domain.NewValidationError("payment_id", "payment is not refundable")
	}

	result, err := s.proc.Refund(ctx, payment.PaymentIntentID, payment.AmountCents, reason)
	if err != nil {
		payment.RefundPending = true
		if uerr := s.paymentRepo.Update(ctx, payment); uerr != nil {
			logger.Error("Failed to flag payment for refund retry", "payment_id", payment.ID, "error", uerr)
		}
		return &domain.PaymentProcessorError{Op: "refund", Err: err}
	}

	now := time.Now().UTC()
	payment.Status = domain.PaymentStatusRefunded
	payment.RefundPending = false
	payment.RefundAmountCents = result.AmountCents
	payment.RefundedAt = &now
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return err
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err == nil {
		booking.PaymentStatus = domain.BookingPaymentStatusRefunded
		if uerr := s.bookingRepo.Update(ctx, booking); uerr != nil {
			logger.Error("Failed to mark booking refunded", "booking_id", booking.ID, "error", uerr)
		}
	}

	s.notifier.Notify(ctx, payment.ClientID, "Payment refunded",
		fmt.Sprintf("Your payment of %d cents has been refunded: %s", payment.AmountCents, reason),
		map[string]string{"type": "PAYMENT_REFUNDED", "payment_id": fmt.Sprintf("%d", payment.ID)})

	logger.Info("Payment refunded", "payment_id", payment.ID, "refund_cents", result.AmountCents)
	return nil
}

// RetryPendingRefunds sweeps payments whose refund previously failed.
func (s *paymentService) RetryPendingRefunds(ctx context.Context, limit int64) (int64, error) {
	pending, err := s.paymentRepo.ListRefundPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	var refunded int64
	for i := range pending {
		p := &pending[i]
		if err := s.refund(ctx, p, "Refund retry after prior failure"); err != nil {
			logger.Warn("Refund retry failed", "payment_id", p.ID, "error", err)
			continue
		}
		refunded++
	}
	return refunded, nil
}
