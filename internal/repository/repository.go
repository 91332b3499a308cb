package repository

import (
	"context"
	"time"

	"careconnect-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	Update(ctx context.Context, listing *domain.Listing) error
	SoftDelete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64, page, pageSize int64) ([]domain.Listing, int64, error)
	List(ctx context.Context, listingType domain.ListingType, category string, page, pageSize int64) ([]domain.Listing, int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// UpdateStatusFrom transitions status only if the current row still has
	// the expected status; reports domain.ErrConcurrencyConflict otherwise.
	UpdateStatusFrom(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) error
	SoftDelete(ctx context.Context, id int64) error
	ListByClient(ctx context.Context, clientID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error)
	ListByProvider(ctx context.Context, providerID int64, status string, page, pageSize int64) ([]domain.Booking, int64, error)
	// ListCompletedWithoutEscrow returns completed paid bookings that have
	// no withdrawal record yet.
	ListCompletedWithoutEscrow(ctx context.Context, limit int64) ([]domain.Booking, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	// GetSucceededByBooking returns the single active succeeded payment for
	// a booking, or domain.ErrNotFound.
	GetSucceededByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	ListRefundPending(ctx context.Context, limit int64) ([]domain.Payment, error)
}

// EscrowFilter narrows the admin withdrawal listing.
type EscrowFilter struct {
	EscrowStatus     string
	WithdrawalStatus string
	ProviderID       int64
	From             *time.Time
	To               *time.Time
	Page             int64
	PageSize         int64
}

// EscrowRelease carries everything the atomic release transaction needs:
// the guarded state update plus the paired ledger credits and the audit
// entry, all committed or rolled back together.
type EscrowRelease struct {
	WithdrawalRequestID  int64
	ApprovedBy           *int64
	TransactionReference string
	Notes                string
	AutoReleased         bool
	PlatformAccountID    int64
	ReleasedAt           time.Time
}

type EscrowRepository interface {
	// CreateIfAbsent inserts the record unless one already exists for the
	// booking; the existing record is returned unchanged in that case.
	CreateIfAbsent(ctx context.Context, wr *domain.WithdrawalRequest) (*domain.WithdrawalRequest, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.WithdrawalRequest, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.WithdrawalRequest, error)
	List(ctx context.Context, filter EscrowFilter) ([]domain.WithdrawalRequest, int64, error)
	ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.WithdrawalRequest, int64, error)
	// ListDueForRelease returns holding records whose auto-release deadline
	// has passed.
	ListDueForRelease(ctx context.Context, now time.Time, limit int64) ([]domain.WithdrawalRequest, error)

	// MarkRequested, MarkRejected and MarkCancelled are conditional updates
	// guarded on the current combined state; zero rows affected surfaces as
	// domain.ErrConcurrencyConflict.
	MarkRequested(ctx context.Context, id int64, bankName, accountLast4 string, requestedAt time.Time) error
	MarkRejected(ctx context.Context, id int64, reason string, processedAt time.Time) error
	MarkCancelled(ctx context.Context, id int64, processedAt time.Time) error

	// Release performs the all-or-nothing release: row lock, guard re-check,
	// state update, two ledger credits, audit entry.
	Release(ctx context.Context, rel *EscrowRelease) (*domain.WithdrawalRequest, error)

	AppendAuditEvent(ctx context.Context, ev *domain.EscrowAuditEvent) error
	ListAuditEvents(ctx context.Context, withdrawalRequestID int64) ([]domain.EscrowAuditEvent, error)

	Statistics(ctx context.Context) (*domain.EscrowStatistics, error)
	CommissionReport(ctx context.Context, groupBy string, from, to time.Time) ([]domain.CommissionReportRow, error)
}

type LedgerRepository interface {
	ListTransactions(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Transaction, int64, error)
	GetBalanceBreakdown(ctx context.Context, providerID int64) (*domain.BalanceBreakdown, error)
	GetSummary(ctx context.Context, userID int64) (*domain.LedgerSummary, error)
}

type BidRepository interface {
	Create(ctx context.Context, bid *domain.Bid) error
	GetByID(ctx context.Context, id int64) (*domain.Bid, error)
	ListByListing(ctx context.Context, listingID int64) ([]domain.Bid, error)
	ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.Bid, int64, error)
	// AcceptAndConvert atomically accepts the bid, rejects its siblings,
	// creates the booking and marks the listing unavailable. Exactly one
	// concurrent acceptance per listing can win.
	AcceptAndConvert(ctx context.Context, bid *domain.Bid, booking *domain.Booking) error
	RejectStale(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Notification, int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}
