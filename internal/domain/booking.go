package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusRejected   BookingStatus = "rejected"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	BookingPaymentStatusUnpaid   BookingPaymentStatus = "unpaid"
	BookingPaymentStatusPaid     BookingPaymentStatus = "paid"
	BookingPaymentStatusRefunded BookingPaymentStatus = "refunded"
)

type Booking struct {
	ID              int64                `json:"id"`
	ClientID        int64                `json:"client_id"`
	ProviderID      int64                `json:"provider_id"`
	ListingID       int64                `json:"listing_id"`
	BookingDate     string               `json:"booking_date"` // yyyy-mm-dd
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	Hours           float64              `json:"hours"`
	HourlyRateCents int64                `json:"hourly_rate_cents"`
	TotalAmountCents int64               `json:"total_amount_cents"`
	Status          BookingStatus        `json:"status"`
	PaymentStatus   BookingPaymentStatus `json:"payment_status"`
	ServiceLocation string               `json:"service_location"`
	AcceptedAt      *time.Time           `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CancelledBy     *int64               `json:"cancelled_by,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	CreatedOn       time.Time            `json:"created_on"`
	UpdatedOn       time.Time            `json:"updated_on"`
	DeletedOn       *time.Time           `json:"deleted_on,omitempty"`
}

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanAccept and friends centralize the lifecycle guards. Services must not
// compare raw statuses inline.
func (b *Booking) CanAccept() bool {
	return b.Status == BookingStatusPending
}

func (b *Booking) CanReject() bool {
	return b.Status == BookingStatusPending
}

func (b *Booking) CanStart() bool {
	return b.Status == BookingStatusAccepted
}

func (b *Booking) CanComplete() bool {
	return b.Status == BookingStatusAccepted || b.Status == BookingStatusInProgress
}

func (b *Booking) CanCancel() bool {
	switch b.Status {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusInProgress:
		return true
	}
	return false
}
