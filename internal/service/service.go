package service

import (
	"context"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/utils"
)

type AuthService interface {
	Signup(ctx context.Context, name, email, phone, password string, role domain.UserRole) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
}

type ListingService interface {
	CreateListing(ctx context.Context, listing *domain.Listing) error
	GetListing(ctx context.Context, id int64) (*domain.Listing, error)
	UpdateListing(ctx context.Context, ownerID int64, listing *domain.Listing) error
	DeleteListing(ctx context.Context, actorID, listingID int64, isAdmin bool) error
	ListListings(ctx context.Context, listingType domain.ListingType, category string, page, pageSize int64) ([]domain.Listing, int64, error)
	ListMyListings(ctx context.Context, ownerID int64, page, pageSize int64) ([]domain.Listing, int64, error)
}

// CreateBookingCommand is the validated input for booking a service listing.
type CreateBookingCommand struct {
	ClientID        int64
	ListingID       int64
	BookingDate     string
	StartTime       time.Time
	EndTime         time.Time
	ServiceLocation string
}

type BookingService interface {
	CreateBooking(ctx context.Context, cmd *CreateBookingCommand) (*domain.Booking, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*domain.Booking, error)
	AcceptBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error)
	RejectBooking(ctx context.Context, providerID, bookingID int64, reason string) (*domain.Booking, error)
	StartBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, providerID, bookingID int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actorID, bookingID int64, reason string) (*domain.Booking, error)
	// ReconcileEscrows backfills escrow records for completed paid bookings
	// that have none. Run from the sweep job.
	ReconcileEscrows(ctx context.Context, limit int64) (int64, error)
	ListClientBookings(ctx context.Context, clientID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error)
	ListProviderBookings(ctx context.Context, providerID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, clientID, bookingID int64) (*domain.Payment, string, error)
	ConfirmIntent(ctx context.Context, clientID, paymentID int64, methodRef string) (*domain.Payment, error)
	// HandleWebhook verifies the signature and applies the event
	// idempotently; duplicate deliveries for a settled payment are no-ops.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	// RefundForBooking refunds the booking's succeeded payment in full. On
	// processor failure the payment is flagged refund_pending for retry.
	RefundForBooking(ctx context.Context, bookingID int64, reason string) error
	RetryPendingRefunds(ctx context.Context, limit int64) (int64, error)
}

// Typed commands for withdrawal operations, validated at the boundary.
type RequestWithdrawalCommand struct {
	BankName      string
	AccountNumber string
}

type ApproveWithdrawalCommand struct {
	TransactionReference string
	Notes                string
}

type RejectWithdrawalCommand struct {
	Reason string
}

// BulkApproveResult reports the per-record outcome of a bulk approval.
type BulkApproveResult struct {
	Approved  int64            `json:"approved"`
	Failed    int64            `json:"failed"`
	Failures  map[int64]string `json:"failures,omitempty"`
}

type EscrowService interface {
	// CreateForCompletedBooking is the single integration point between the
	// booking lifecycle and the financial core. Idempotent per booking.
	CreateForCompletedBooking(ctx context.Context, booking *domain.Booking) (*domain.WithdrawalRequest, error)

	GetWithdrawal(ctx context.Context, id int64) (*domain.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, filter repository.EscrowFilter) ([]domain.WithdrawalRequest, int64, error)
	ListProviderWithdrawals(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.WithdrawalRequest, int64, error)

	RequestWithdrawal(ctx context.Context, providerID, withdrawalID int64, cmd *RequestWithdrawalCommand) (*domain.WithdrawalRequest, error)
	CancelWithdrawal(ctx context.Context, providerID, withdrawalID int64) (*domain.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, adminID, withdrawalID int64, cmd *ApproveWithdrawalCommand) (*domain.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, adminID, withdrawalID int64, cmd *RejectWithdrawalCommand) (*domain.WithdrawalRequest, error)
	BulkApprove(ctx context.Context, adminID int64, withdrawalIDs []int64, cmd *ApproveWithdrawalCommand) (*BulkApproveResult, error)

	// AutoReleaseDue releases every eligible record independently; safe to
	// run concurrently from multiple scheduler instances.
	AutoReleaseDue(ctx context.Context, now time.Time, limit int64) (released int64, failed int64, err error)

	PreviewFees(grossCents int64) (*utils.FeeBreakdown, error)
	GetAuditTrail(ctx context.Context, withdrawalID int64) ([]domain.EscrowAuditEvent, error)
	Statistics(ctx context.Context) (*domain.EscrowStatistics, error)
	CommissionReport(ctx context.Context, groupBy string, from, to time.Time) ([]domain.CommissionReportRow, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, providerID int64) (*domain.BalanceBreakdown, error)
	GetTransactions(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Transaction, int64, error)
	GetSummary(ctx context.Context, userID int64) (*domain.LedgerSummary, error)
}

type BidService interface {
	PlaceBid(ctx context.Context, providerID, listingID int64, amountCents int64, message string) (*domain.Bid, error)
	// AcceptBid converts the winning bid into a booking; sibling bids are
	// rejected and the listing closed in the same unit of work.
	AcceptBid(ctx context.Context, ownerID, bidID int64) (*domain.Bid, *domain.Booking, error)
	ListBidsForListing(ctx context.Context, ownerID, listingID int64) ([]domain.Bid, error)
	ListMyBids(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.Bid, int64, error)
	ExpireStaleBids(ctx context.Context, olderThan time.Duration) (int64, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	// Notify is fire-and-forget: delivery failures are logged, never
	// propagated to the triggering operation.
	Notify(ctx context.Context, userID int64, title, message string, attributes map[string]string)
}

// EmailSender is the outbound mail boundary; SMTP and SendGrid
// implementations are selected by config.
type EmailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, body string) error
}
