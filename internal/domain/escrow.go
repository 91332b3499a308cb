package domain

import "time"

type EscrowStatus string

const (
	EscrowStatusHolding  EscrowStatus = "holding"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

type WithdrawalStatus string

const (
	WithdrawalStatusNone      WithdrawalStatus = "none"
	WithdrawalStatusRequested WithdrawalStatus = "requested"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusPaid      WithdrawalStatus = "paid"
	WithdrawalStatusCancelled WithdrawalStatus = "cancelled"
)

// WithdrawalRequest is the escrow record for one completed booking. Exactly
// one exists per booking; it is never hard-deleted.
type WithdrawalRequest struct {
	ID                     int64            `json:"id"`
	ProviderID             int64            `json:"provider_id"`
	BookingID              int64            `json:"booking_id"`
	GrossAmountCents       int64            `json:"gross_amount_cents"`
	ClientFeeCents         int64            `json:"client_fee_cents"`
	ProviderFeeCents       int64            `json:"provider_fee_cents"`
	PlatformFeeTotalCents  int64            `json:"platform_fee_total_cents"`
	NetProviderAmountCents int64            `json:"net_provider_amount_cents"`
	Currency               string           `json:"currency"`
	EscrowStatus           EscrowStatus     `json:"escrow_status"`
	WithdrawalStatus       WithdrawalStatus `json:"withdrawal_status"`
	EscrowHeldAt           time.Time        `json:"escrow_held_at"`
	AutoReleaseAt          time.Time        `json:"auto_release_at"`
	EscrowReleasedAt       *time.Time       `json:"escrow_released_at,omitempty"`
	WithdrawalRequestedAt  *time.Time       `json:"withdrawal_requested_at,omitempty"`
	WithdrawalProcessedAt  *time.Time       `json:"withdrawal_processed_at,omitempty"`
	BankName               string           `json:"bank_name,omitempty"`
	AccountNumberLast4     string           `json:"account_number_last4,omitempty"`
	ApprovedBy             *int64           `json:"approved_by,omitempty"`
	RejectionReason        string           `json:"rejection_reason,omitempty"`
	TransactionReference   string           `json:"transaction_reference,omitempty"`
	Notes                  string           `json:"notes,omitempty"`
	AutoReleased           bool             `json:"auto_released"`
	CreatedOn              time.Time        `json:"created_on"`
	UpdatedOn              time.Time        `json:"updated_on"`
}

// The combined (escrow_status, withdrawal_status) guards live here so that
// every caller shares one definition of the state machine.

// CanRequestWithdrawal holds while funds are in escrow and no request is in
// flight. A rejected or cancelled request may be re-submitted.
func (w *WithdrawalRequest) CanRequestWithdrawal() bool {
	if w.EscrowStatus != EscrowStatusHolding {
		return false
	}
	switch w.WithdrawalStatus {
	case WithdrawalStatusNone, WithdrawalStatusRejected, WithdrawalStatusCancelled:
		return true
	}
	return false
}

// CanApprove holds for an explicit provider request or, on the admin direct
// path, for a record never requested at all. Rejected and cancelled requests
// count as never-requested here: the funds are still holding and the
// auto-release sweep would pay them out regardless, so an admin may settle
// them early too.
func (w *WithdrawalRequest) CanApprove() bool {
	if w.EscrowStatus != EscrowStatusHolding {
		return false
	}
	switch w.WithdrawalStatus {
	case WithdrawalStatusRequested, WithdrawalStatusNone, WithdrawalStatusRejected, WithdrawalStatusCancelled:
		return true
	}
	return false
}

func (w *WithdrawalRequest) CanReject() bool {
	return w.EscrowStatus == EscrowStatusHolding && w.WithdrawalStatus == WithdrawalStatusRequested
}

func (w *WithdrawalRequest) CanCancel() bool {
	return w.EscrowStatus == EscrowStatusHolding && w.WithdrawalStatus == WithdrawalStatusRequested
}

// IsReleasable reports auto-release eligibility at the given instant.
// Cancellation or rejection of a withdrawal request does not reset the
// auto-release deadline.
func (w *WithdrawalRequest) IsReleasable(now time.Time) bool {
	return w.EscrowStatus == EscrowStatusHolding &&
		w.WithdrawalStatus != WithdrawalStatusPaid &&
		!now.Before(w.AutoReleaseAt)
}

// Audit actions recorded against a withdrawal request.
const (
	EscrowAuditActionHeld         = "escrow_held"
	EscrowAuditActionRequested    = "withdrawal_requested"
	EscrowAuditActionApproved     = "withdrawal_approved"
	EscrowAuditActionRejected     = "withdrawal_rejected"
	EscrowAuditActionCancelled    = "withdrawal_cancelled"
	EscrowAuditActionAutoReleased = "auto_released"
)

// EscrowAuditEvent is one entry in the append-only audit trail of a
// withdrawal request.
type EscrowAuditEvent struct {
	ID                  int64     `json:"id"`
	WithdrawalRequestID int64     `json:"withdrawal_request_id"`
	ActorID             *int64    `json:"actor_id,omitempty"`
	Action              string    `json:"action"`
	Detail              string    `json:"detail,omitempty"`
	CreatedOn           time.Time `json:"created_on"`
}

// EscrowStatistics is the admin dashboard aggregate over all withdrawal
// requests. Absent data yields zeros, never an error.
type EscrowStatistics struct {
	TotalHoldingCents     int64 `json:"total_holding_cents"`
	TotalReleasedCents    int64 `json:"total_released_cents"`
	TotalPlatformFeeCents int64 `json:"total_platform_fee_cents"`
	HoldingCount          int64 `json:"holding_count"`
	RequestedCount        int64 `json:"requested_count"`
	ReleasedCount         int64 `json:"released_count"`
	AutoReleasedCount     int64 `json:"auto_released_count"`
	RejectedCount         int64 `json:"rejected_count"`
}

// CommissionReportRow is one bucket of the commission report, grouped by
// day, week or month of release.
type CommissionReportRow struct {
	Period                string `json:"period"`
	ReleasedCount         int64  `json:"released_count"`
	GrossAmountCents      int64  `json:"gross_amount_cents"`
	ClientFeeCents        int64  `json:"client_fee_cents"`
	ProviderFeeCents      int64  `json:"provider_fee_cents"`
	PlatformFeeTotalCents int64  `json:"platform_fee_total_cents"`
	NetProviderCents      int64  `json:"net_provider_cents"`
}
