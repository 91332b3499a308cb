package domain

import "time"

type TransactionType string

const (
	TransactionTypePayout      TransactionType = "payout"
	TransactionTypePlatformFee TransactionType = "platform_fee"
)

type TransactionDirection string

const (
	TransactionDirectionCredit TransactionDirection = "credit"
	TransactionDirectionDebit  TransactionDirection = "debit"
)

// Transaction is one row of the append-only payout ledger. Rows are written
// only inside an escrow release and are immutable afterwards.
type Transaction struct {
	ID                  int64                `json:"id"`
	UserID              int64                `json:"user_id"`
	BookingID           *int64               `json:"booking_id,omitempty"`
	WithdrawalRequestID *int64               `json:"withdrawal_request_id,omitempty"`
	Type                TransactionType      `json:"type"`
	AmountCents         int64                `json:"amount_cents"`
	Currency            string               `json:"currency"`
	Direction           TransactionDirection `json:"direction"`
	Status              string               `json:"status"`
	Description         string               `json:"description"`
	CreatedOn           time.Time            `json:"created_on"`
}

// BalanceBreakdown is the provider-facing view of their money: what is
// still held in escrow, what has been released, and lifetime fees paid.
type BalanceBreakdown struct {
	HoldingCents        int64 `json:"holding_cents"`
	ReleasedCents       int64 `json:"released_cents"`
	PendingRequestCents int64 `json:"pending_request_cents"`
	LifetimeFeeCents    int64 `json:"lifetime_fee_cents"`
	HoldingCount        int64 `json:"holding_count"`
	ReleasedCount       int64 `json:"released_count"`
}

// LedgerSummary aggregates a user's ledger activity for statements.
type LedgerSummary struct {
	TotalCreditsCents int64            `json:"total_credits_cents"`
	TotalDebitsCents  int64            `json:"total_debits_cents"`
	TransactionCount  int64            `json:"transaction_count"`
	CountByType       map[string]int64 `json:"count_by_type"`
}
