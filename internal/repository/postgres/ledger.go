package postgres

import (
	"context"
	"database/sql"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

// The ledger repository exposes only reads. Ledger rows are written solely
// inside escrowRepository.Release so that payout and platform-fee credits
// can never be created independently of an escrow release.
type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Transaction, int64, error) {
	var count int64
	countQuery := `SELECT count(*) FROM transactions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := `SELECT id, user_id, booking_id, withdrawal_request_id, type, amount_cents,
		currency, direction, status, COALESCE(description, ''), created_on
		FROM transactions WHERE user_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.BookingID, &tx.WithdrawalRequestID, &tx.Type,
			&tx.AmountCents, &tx.Currency, &tx.Direction, &tx.Status, &tx.Description, &tx.CreatedOn); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, count, rows.Err()
}

func (r *ledgerRepository) GetBalanceBreakdown(ctx context.Context, providerID int64) (*domain.BalanceBreakdown, error) {
	bb := &domain.BalanceBreakdown{}
	query := `SELECT
		COALESCE(SUM(net_provider_amount_cents) FILTER (WHERE escrow_status = 'holding'), 0),
		COALESCE(SUM(net_provider_amount_cents) FILTER (WHERE escrow_status = 'released'), 0),
		COALESCE(SUM(net_provider_amount_cents) FILTER (WHERE escrow_status = 'holding' AND withdrawal_status = 'requested'), 0),
		COALESCE(SUM(provider_fee_cents), 0),
		COUNT(*) FILTER (WHERE escrow_status = 'holding'),
		COUNT(*) FILTER (WHERE escrow_status = 'released')
		FROM withdrawal_requests WHERE provider_id = $1`
	err := r.db.QueryRowContext(ctx, query, providerID).Scan(
		&bb.HoldingCents, &bb.ReleasedCents, &bb.PendingRequestCents,
		&bb.LifetimeFeeCents, &bb.HoldingCount, &bb.ReleasedCount)
	if err != nil {
		return nil, err
	}
	return bb, nil
}

func (r *ledgerRepository) GetSummary(ctx context.Context, userID int64) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{CountByType: make(map[string]int64)}

	query := `SELECT
		COALESCE(SUM(amount_cents) FILTER (WHERE direction = 'credit'), 0),
		COALESCE(SUM(amount_cents) FILTER (WHERE direction = 'debit'), 0),
		COUNT(*)
		FROM transactions WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&summary.TotalCreditsCents, &summary.TotalDebitsCents, &summary.TransactionCount)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT type, count(*) FROM transactions WHERE user_id = $1 GROUP BY type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var txType string
		var count int64
		if err := rows.Scan(&txType, &count); err != nil {
			return nil, err
		}
		summary.CountByType[txType] = count
	}
	return summary, rows.Err()
}
