package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/processor"
	"careconnect-backend/internal/service"
)

func newPaymentService(payments *MockPaymentRepo, bookings *MockBookingRepo, proc *MockProcessor) service.PaymentService {
	return service.NewPaymentService(payments, bookings, proc, &fakeNotifier{}, service.PaymentConfig{
		MinChargeCents: 50,
		Currency:       "usd",
		ClientFeeBps:   1000,
		ProviderFeeBps: 1000,
	})
}

func acceptedBooking(id, clientID, providerID int64) *domain.Booking {
	return &domain.Booking{
		ID:               id,
		ClientID:         clientID,
		ProviderID:       providerID,
		TotalAmountCents: 10000,
		Status:           domain.BookingStatusAccepted,
		PaymentStatus:    domain.BookingPaymentStatusUnpaid,
	}
}

func TestPaymentService_CreateIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("ChargesGrossPlusClientFee", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, bookings, proc)

		bookings.On("GetByID", ctx, int64(5)).Return(acceptedBooking(5, 1, 2), nil)
		proc.On("CreateIntent", ctx, int64(11000), "usd", "client-1", mock.Anything).
			Return(&processor.Intent{ID: "pi_1", ClientSecret: "secret", Status: processor.IntentStatusPending}, nil)
		payments.On("Create", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.AmountCents == 11000 &&
				p.PlatformFeeCents == 2000 &&
				p.ProviderAmountCents == 9000 &&
				p.PaymentIntentID == "pi_1" &&
				p.Status == domain.PaymentStatusPending
		})).Return(nil)

		payment, secret, err := svc.CreateIntent(ctx, 1, 5)
		assert.NoError(t, err)
		assert.Equal(t, "secret", secret)
		assert.Equal(t, int64(11000), payment.AmountCents)
	})

	t.Run("OnlyTheBookingClientMayPay", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		svc := newPaymentService(payments, bookings, new(MockProcessor))

		bookings.On("GetByID", ctx, int64(5)).Return(acceptedBooking(5, 1, 2), nil)

		_, _, err := svc.CreateIntent(ctx, 99, 5)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("PendingBookingNotPayable", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		svc := newPaymentService(payments, bookings, new(MockProcessor))

		b := acceptedBooking(5, 1, 2)
		b.Status = domain.BookingStatusPending
		bookings.On("GetByID", ctx, int64(5)).Return(b, nil)

		_, _, err := svc.CreateIntent(ctx, 1, 5)
		var stateErr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("AlreadyPaidRejected", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		svc := newPaymentService(payments, bookings, new(MockProcessor))

		b := acceptedBooking(5, 1, 2)
		b.PaymentStatus = domain.BookingPaymentStatusPaid
		bookings.On("GetByID", ctx, int64(5)).Return(b, nil)

		_, _, err := svc.CreateIntent(ctx, 1, 5)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("BelowMinimumChargeRejected", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		svc := newPaymentService(payments, bookings, new(MockProcessor))

		b := acceptedBooking(5, 1, 2)
		b.TotalAmountCents = 10
		bookings.On("GetByID", ctx, int64(5)).Return(b, nil)

		_, _, err := svc.CreateIntent(ctx, 1, 5)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1"}`)

	t.Run("SuccessEventSettlesPaymentAndBooking", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, bookings, proc)

		proc.On("VerifyWebhookSignature", payload, "sig").
			Return(&processor.Event{ID: "evt_1", Type: processor.EventIntentSucceeded, IntentID: "pi_1"}, nil)
		payments.On("GetByIntentID", ctx, "pi_1").Return(&domain.Payment{
			ID: 3, BookingID: 5, ClientID: 1, ProviderID: 2,
			PaymentIntentID: "pi_1", Status: domain.PaymentStatusPending,
		}, nil)
		payments.On("Update", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.Status == domain.PaymentStatusSucceeded && p.PaidAt != nil
		})).Return(nil)
		bookings.On("GetByID", ctx, int64(5)).Return(acceptedBooking(5, 1, 2), nil)
		bookings.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.PaymentStatus == domain.BookingPaymentStatusPaid
		})).Return(nil)

		err := svc.HandleWebhook(ctx, payload, "sig")
		assert.NoError(t, err)
	})

	t.Run("DuplicateSuccessDeliveryIsNoop", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, bookings, proc)

		proc.On("VerifyWebhookSignature", payload, "sig").
			Return(&processor.Event{Type: processor.EventIntentSucceeded, IntentID: "pi_1"}, nil)
		payments.On("GetByIntentID", ctx, "pi_1").Return(&domain.Payment{
			ID: 3, PaymentIntentID: "pi_1", Status: domain.PaymentStatusSucceeded,
		}, nil)

		err := svc.HandleWebhook(ctx, payload, "sig")
		assert.NoError(t, err)
		payments.AssertNotCalled(t, "Update", ctx, mock.Anything)
	})

	t.Run("InvalidSignatureRejected", func(t *testing.T) {
		proc := new(MockProcessor)
		svc := newPaymentService(new(MockPaymentRepo), new(MockBookingRepo), proc)

		proc.On("VerifyWebhookSignature", payload, "bad").Return(nil, errors.New("signature mismatch"))

		err := svc.HandleWebhook(ctx, payload, "bad")
		var procErr *domain.PaymentProcessorError
		assert.ErrorAs(t, err, &procErr)
	})

	t.Run("UnknownIntentAcknowledged", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, new(MockBookingRepo), proc)

		proc.On("VerifyWebhookSignature", payload, "sig").
			Return(&processor.Event{Type: processor.EventIntentSucceeded, IntentID: "pi_unknown"}, nil)
		payments.On("GetByIntentID", ctx, "pi_unknown").Return(nil, domain.ErrNotFound)

		err := svc.HandleWebhook(ctx, payload, "sig")
		assert.NoError(t, err)
	})
}

func TestPaymentService_RefundForBooking(t *testing.T) {
	ctx := context.Background()

	succeededPayment := func() *domain.Payment {
		return &domain.Payment{
			ID: 3, BookingID: 5, ClientID: 1, ProviderID: 2,
			AmountCents: 11000, PaymentIntentID: "pi_1",
			Status: domain.PaymentStatusSucceeded,
		}
	}

	t.Run("FullRefund", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, bookings, proc)

		payments.On("GetSucceededByBooking", ctx, int64(5)).Return(succeededPayment(), nil)
		proc.On("Refund", ctx, "pi_1", int64(11000), "Booking cancelled").
			Return(&processor.RefundResult{ID: "re_1", AmountCents: 11000}, nil)
		payments.On("Update", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.Status == domain.PaymentStatusRefunded &&
				!p.RefundPending &&
				p.RefundAmountCents == 11000
		})).Return(nil)
		bookings.On("GetByID", ctx, int64(5)).Return(acceptedBooking(5, 1, 2), nil)
		bookings.On("Update", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.PaymentStatus == domain.BookingPaymentStatusRefunded
		})).Return(nil)

		err := svc.RefundForBooking(ctx, 5, "Booking cancelled")
		assert.NoError(t, err)
	})

	t.Run("ProcessorFailureFlagsRetry", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, new(MockBookingRepo), proc)

		payments.On("GetSucceededByBooking", ctx, int64(5)).Return(succeededPayment(), nil)
		proc.On("Refund", ctx, "pi_1", int64(11000), "Booking cancelled").
			Return(nil, errors.New("processor timeout"))
		payments.On("Update", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.RefundPending && p.Status == domain.PaymentStatusSucceeded
		})).Return(nil)

		err := svc.RefundForBooking(ctx, 5, "Booking cancelled")
		var procErr *domain.PaymentProcessorError
		assert.ErrorAs(t, err, &procErr)
	})

	t.Run("NoSucceededPaymentIsNoop", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		svc := newPaymentService(payments, new(MockBookingRepo), new(MockProcessor))

		payments.On("GetSucceededByBooking", ctx, int64(5)).Return(nil, domain.ErrNotFound)

		err := svc.RefundForBooking(ctx, 5, "Booking cancelled")
		assert.NoError(t, err)
	})
}

func TestPaymentService_RetryPendingRefunds(t *testing.T) {
	ctx := context.Background()

	t.Run("RetriesFlaggedPayments", func(t *testing.T) {
		payments := new(MockPaymentRepo)
		bookings := new(MockBookingRepo)
		proc := new(MockProcessor)
		svc := newPaymentService(payments, bookings, proc)

		flagged := domain.Payment{
			ID: 3, BookingID: 5, ClientID: 1,
			AmountCents: 11000, PaymentIntentID: "pi_1",
			Status: domain.PaymentStatusSucceeded, RefundPending: true,
		}
		payments.On("ListRefundPending", ctx, int64(100)).Return([]domain.Payment{flagged}, nil)
		proc.On("Refund", ctx, "pi_1", int64(11000), mock.Anything).
			Return(&processor.RefundResult{ID: "re_1", AmountCents: 11000}, nil)
		payments.On("Update", ctx, mock.Anything).Return(nil)
		bookings.On("GetByID", ctx, int64(5)).Return(acceptedBooking(5, 1, 2), nil)
		bookings.On("Update", ctx, mock.Anything).Return(nil)

		refunded, err := svc.RetryPendingRefunds(ctx, 100)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), refunded)
	})
}
