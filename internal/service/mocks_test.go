package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/processor"
	"careconnect-backend/internal/repository"
)

// MockEscrowRepo
type MockEscrowRepo struct {
	mock.Mock
}

func (m *MockEscrowRepo) CreateIfAbsent(ctx context.Context, wr *domain.WithdrawalRequest) (*domain.WithdrawalRequest, bool, error) {
	args := m.Called(ctx, wr)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Bool(1), args.Error(2)
}
func (m *MockEscrowRepo) GetByID(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}
func (m *MockEscrowRepo) GetByBookingID(ctx context.Context, bookingID int64) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}
func (m *MockEscrowRepo) List(ctx context.Context, filter repository.EscrowFilter) ([]domain.WithdrawalRequest, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.WithdrawalRequest), args.Get(1).(int64), args.Error(2)
}
func (m *MockEscrowRepo) ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.WithdrawalRequest, int64, error) {
	args := m.Called(ctx, providerID, page, pageSize)
	return args.Get(0).([]domain.WithdrawalRequest), args.Get(1).(int64), args.Error(2)
}
func (m *MockEscrowRepo) ListDueForRelease(ctx context.Context, now time.Time, limit int64) ([]domain.WithdrawalRequest, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.WithdrawalRequest), args.Error(1)
}
func (m *MockEscrowRepo) MarkRequested(ctx context.Context, id int64, bankName, accountLast4 string, requestedAt time.Time) error {
	args := m.Called(ctx, id, bankName, accountLast4, requestedAt)
	return args.Error(0)
}
func (m *MockEscrowRepo) MarkRejected(ctx context.Context, id int64, reason string, processedAt time.Time) error {
	args := m.Called(ctx, id, reason, processedAt)
	return args.Error(0)
}
func (m *MockEscrowRepo) MarkCancelled(ctx context.Context, id int64, processedAt time.Time) error {
	args := m.Called(ctx, id, processedAt)
	return args.Error(0)
}
func (m *MockEscrowRepo) Release(ctx context.Context, rel *repository.EscrowRelease) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, rel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}
func (m *MockEscrowRepo) AppendAuditEvent(ctx context.Context, ev *domain.EscrowAuditEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
func (m *MockEscrowRepo) ListAuditEvents(ctx context.Context, withdrawalRequestID int64) ([]domain.EscrowAuditEvent, error) {
	args := m.Called(ctx, withdrawalRequestID)
	return args.Get(0).([]domain.EscrowAuditEvent), args.Error(1)
}
func (m *MockEscrowRepo) Statistics(ctx context.Context) (*domain.EscrowStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowStatistics), args.Error(1)
}
func (m *MockEscrowRepo) CommissionReport(ctx context.Context, groupBy string, from, to time.Time) ([]domain.CommissionReportRow, error) {
	args := m.Called(ctx, groupBy, from, to)
	return args.Get(0).([]domain.CommissionReportRow), args.Error(1)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) Update(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}
func (m *MockBookingRepo) UpdateStatusFrom(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error {
	args := m.Called(ctx, booking, from)
	return args.Error(0)
}
func (m *MockBookingRepo) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockBookingRepo) ListByClient(ctx context.Context, clientID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	args := m.Called(ctx, clientID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int64), args.Error(2)
}
func (m *MockBookingRepo) ListByProvider(ctx context.Context, providerID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error) {
	args := m.Called(ctx, providerID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockBookingRepo) ListCompletedWithoutEscrow(ctx context.Context, limit int64) ([]domain.Booking, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) GetSucceededByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListRefundPending(ctx context.Context, limit int64) ([]domain.Payment, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockListingRepo
type MockListingRepo struct {
	mock.Mock
}

func (m *MockListingRepo) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepo) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepo) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepo) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockListingRepo) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int64) ([]domain.Listing, int64, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.Listing), args.Get(1).(int64), args.Error(2)
}
func (m *MockListingRepo) List(ctx context.Context, listingType domain.ListingType, category string, page, pageSize int64) ([]domain.Listing, int64, error) {
	args := m.Called(ctx, listingType, category, page, pageSize)
	return args.Get(0).([]domain.Listing), args.Get(1).(int64), args.Error(2)
}

// MockBidRepo
type MockBidRepo struct {
	mock.Mock
}

func (m *MockBidRepo) Create(ctx context.Context, bid *domain.Bid) error {
	args := m.Called(ctx, bid)
	return args.Error(0)
}
func (m *MockBidRepo) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bid), args.Error(1)
}
func (m *MockBidRepo) ListByListing(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).([]domain.Bid), args.Error(1)
}
func (m *MockBidRepo) ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.Bid, int64, error) {
	args := m.Called(ctx, providerID, page, pageSize)
	return args.Get(0).([]domain.Bid), args.Get(1).(int64), args.Error(2)
}
func (m *MockBidRepo) AcceptAndConvert(ctx context.Context, bid *domain.Bid, booking *domain.Booking) error {
	args := m.Called(ctx, bid, booking)
	return args.Error(0)
}
func (m *MockBidRepo) RejectStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) ListTransactions(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}
func (m *MockLedgerRepo) GetBalanceBreakdown(ctx context.Context, providerID int64) (*domain.BalanceBreakdown, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceBreakdown), args.Error(1)
}
func (m *MockLedgerRepo) GetSummary(ctx context.Context, userID int64) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

// MockProcessor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, customerRef string, metadata map[string]string) (*processor.Intent, error) {
	args := m.Called(ctx, amountCents, currency, customerRef, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Intent), args.Error(1)
}
func (m *MockProcessor) ConfirmIntent(ctx context.Context, intentID, methodRef string) (*processor.Intent, error) {
	args := m.Called(ctx, intentID, methodRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Intent), args.Error(1)
}
func (m *MockProcessor) Refund(ctx context.Context, intentID string, amountCents int64, reason string) (*processor.RefundResult, error) {
	args := m.Called(ctx, intentID, amountCents, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.RefundResult), args.Error(1)
}
func (m *MockProcessor) VerifyWebhookSignature(payload []byte, signature string) (*processor.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Event), args.Error(1)
}

// fakeNotifier records notifications without side effects.
type fakeNotifier struct {
	notified []int64
}

func (f *fakeNotifier) GetNotifications(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Notification, int64, error) {
	return nil, 0, nil
}
func (f *fakeNotifier) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	return nil
}
func (f *fakeNotifier) Notify(ctx context.Context, userID int64, title, message string, attributes map[string]string) {
	f.notified = append(f.notified, userID)
}
