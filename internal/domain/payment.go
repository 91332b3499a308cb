package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusRequiresAction PaymentStatus = "requires_action"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

type Payment struct {
	ID                int64         `json:"id"`
	BookingID         int64         `json:"booking_id"`
	ClientID          int64         `json:"client_id"`
	ProviderID        int64         `json:"provider_id"`
	AmountCents       int64         `json:"amount_cents"`
	PlatformFeeCents  int64         `json:"platform_fee_cents"`
	ProviderAmountCents int64       `json:"provider_amount_cents"`
	Currency          string        `json:"currency"`
	PaymentIntentID   string        `json:"payment_intent_id"`
	CustomerID        string        `json:"customer_id"`
	Status            PaymentStatus `json:"status"`
	RefundAmountCents int64         `json:"refund_amount_cents"`
	// RefundPending marks a succeeded payment whose refund attempt failed
	// during booking cancellation; the refund retry job sweeps these.
	RefundPending bool       `json:"refund_pending"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedOn     time.Time  `json:"created_on"`
	UpdatedOn     time.Time  `json:"updated_on"`
}

// CanRefund reports whether a refund of amountCents may be issued.
func (p *Payment) CanRefund(amountCents int64) bool {
	return p.Status == PaymentStatusSucceeded && amountCents > 0 && amountCents <= p.AmountCents
}
