package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"

	"github.com/lib/pq"
)

const escrowColumns = `id, provider_id, booking_id, gross_amount_cents, client_fee_cents,
	provider_fee_cents, platform_fee_total_cents, net_provider_amount_cents, currency,
	escrow_status, withdrawal_status, escrow_held_at, auto_release_at, escrow_released_at,
	withdrawal_requested_at, withdrawal_processed_at, COALESCE(bank_name, ''),
	COALESCE(account_number_last4, ''), approved_by, COALESCE(rejection_reason, ''),
	COALESCE(transaction_reference, ''), COALESCE(notes, ''), auto_released, created_on, updated_on`

type escrowRepository struct {
	db *sql.DB
}

func NewEscrowRepository(db *sql.DB) repository.EscrowRepository {
	return &escrowRepository{db: db}
}

func scanWithdrawalRequest(row interface{ Scan(...interface{}) error }) (*domain.WithdrawalRequest, error) {
	wr := &domain.WithdrawalRequest{}
	err := row.Scan(&wr.ID, &wr.ProviderID, &wr.BookingID, &wr.GrossAmountCents, &wr.ClientFeeCents,
		&wr.ProviderFeeCents, &wr.PlatformFeeTotalCents, &wr.NetProviderAmountCents, &wr.Currency,
		&wr.EscrowStatus, &wr.WithdrawalStatus, &wr.EscrowHeldAt, &wr.AutoReleaseAt, &wr.EscrowReleasedAt,
		&wr.WithdrawalRequestedAt, &wr.WithdrawalProcessedAt, &wr.BankName,
		&wr.AccountNumberLast4, &wr.ApprovedBy, &wr.RejectionReason,
		&wr.TransactionReference, &wr.Notes, &wr.AutoReleased, &wr.CreatedOn, &wr.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return wr, nil
}

// CreateIfAbsent relies on the unique index on booking_id: a duplicate
// completion trigger falls through to fetching the existing record.
func (r *escrowRepository) CreateIfAbsent(ctx context.Context, wr *domain.WithdrawalRequest) (*domain.WithdrawalRequest, bool, error) {
	query := `INSERT INTO withdrawal_requests
		(provider_id, booking_id, gross_amount_cents, client_fee_cents, provider_fee_cents,
		 platform_fee_total_cents, net_provider_amount_cents, currency, escrow_status,
		 withdrawal_status, escrow_held_at, auto_release_at, created_on, updated_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, created_on, updated_on`
	err := r.db.QueryRowContext(ctx, query,
		wr.ProviderID, wr.BookingID, wr.GrossAmountCents, wr.ClientFeeCents, wr.ProviderFeeCents,
		wr.PlatformFeeTotalCents, wr.NetProviderAmountCents, wr.Currency, wr.EscrowStatus,
		wr.WithdrawalStatus, wr.EscrowHeldAt, wr.AutoReleaseAt,
	).Scan(&wr.ID, &wr.CreatedOn, &wr.UpdatedOn)
	if err == nil {
		return wr, true, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		existing, gerr := r.GetByBookingID(ctx, wr.BookingID)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	return nil, false, err
}

func (r *escrowRepository) GetByID(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + escrowColumns + ` FROM withdrawal_requests WHERE id = $1`
	wr, err := scanWithdrawalRequest(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return wr, err
}

func (r *escrowRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + escrowColumns + ` FROM withdrawal_requests WHERE booking_id = $1`
	wr, err := scanWithdrawalRequest(r.db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return wr, err
}

func (r *escrowRepository) List(ctx context.Context, filter repository.EscrowFilter) ([]domain.WithdrawalRequest, int64, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if filter.EscrowStatus != "" {
		where += fmt.Sprintf(" AND escrow_status = $%d", idx)
		args = append(args, filter.EscrowStatus)
		idx++
	}
	if filter.WithdrawalStatus != "" {
		where += fmt.Sprintf(" AND withdrawal_status = $%d", idx)
		args = append(args, filter.WithdrawalStatus)
		idx++
	}
	if filter.ProviderID != 0 {
		where += fmt.Sprintf(" AND provider_id = $%d", idx)
		args = append(args, filter.ProviderID)
		idx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND escrow_held_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND escrow_held_at < $%d", idx)
		args = append(args, *filter.To)
		idx++
	}

	var count int64
	countQuery := "SELECT count(*) FROM withdrawal_requests " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := "SELECT " + escrowColumns + " FROM withdrawal_requests " + where +
		fmt.Sprintf(" ORDER BY escrow_held_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.WithdrawalRequest
	for rows.Next() {
		wr, err := scanWithdrawalRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *wr)
	}
	return list, count, rows.Err()
}

func (r *escrowRepository) ListByProvider(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.WithdrawalRequest, int64, error) {
	return r.List(ctx, repository.EscrowFilter{ProviderID: providerID, Page: page, PageSize: pageSize})
}

func (r *escrowRepository) ListDueForRelease(ctx context.Context, now time.Time, limit int64) ([]domain.WithdrawalRequest, error) {
	query := `SELECT ` + escrowColumns + ` FROM withdrawal_requests
		WHERE escrow_status = 'holding' AND withdrawal_status <> 'paid' AND auto_release_at <= $1
		ORDER BY auto_release_at ASC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.WithdrawalRequest
	for rows.Next() {
		wr, err := scanWithdrawalRequest(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *wr)
	}
	return due, rows.Err()
}

func (r *escrowRepository) MarkRequested(ctx context.Context, id int64, bankName, accountLast4 string, requestedAt time.Time) error {
	query := `UPDATE withdrawal_requests
		SET withdrawal_status = 'requested', withdrawal_requested_at = $2,
		    bank_name = NULLIF($3, ''), account_number_last4 = NULLIF($4, ''),
		    rejection_reason = NULL, updated_on = NOW()
		WHERE id = $1 AND escrow_status = 'holding'
		  AND withdrawal_status IN ('none', 'rejected', 'cancelled')`
	return r.execGuarded(ctx, query, id, requestedAt, bankName, accountLast4)
}

func (r *escrowRepository) MarkRejected(ctx context.Context, id int64, reason string, processedAt time.Time) error {
	query := `UPDATE withdrawal_requests
		SET withdrawal_status = 'rejected', rejection_reason = $2,
		    withdrawal_processed_at = $3, updated_on = NOW()
		WHERE id = $1 AND escrow_status = 'holding' AND withdrawal_status = 'requested'`
	return r.execGuarded(ctx, query, id, reason, processedAt)
}

func (r *escrowRepository) MarkCancelled(ctx context.Context, id int64, processedAt time.Time) error {
	query := `UPDATE withdrawal_requests
		SET withdrawal_status = 'cancelled', withdrawal_processed_at = $2, updated_on = NOW()
		WHERE id = $1 AND escrow_status = 'holding' AND withdrawal_status = 'requested'`
	return r.execGuarded(ctx, query, id, processedAt)
}

// execGuarded runs a conditional state update; zero affected rows means a
// competing transition won.
func (r *escrowRepository) execGuarded(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

// Release is the single write path into the payout ledger. The row lock plus
// the re-checked guard make a racing approve and auto-release mutually
// exclusive; losing callers see ErrConcurrencyConflict and no mutation.
func (r *escrowRepository) Release(ctx context.Context, rel *repository.EscrowRelease) (*domain.WithdrawalRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockQuery := `SELECT ` + escrowColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`
	wr, err := scanWithdrawalRequest(tx.QueryRowContext(ctx, lockQuery, rel.WithdrawalRequestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if wr.EscrowStatus != domain.EscrowStatusHolding || wr.WithdrawalStatus == domain.WithdrawalStatusPaid {
		return nil, domain.ErrConcurrencyConflict
	}

	updateQuery := `UPDATE withdrawal_requests
		SET escrow_status = 'released', withdrawal_status = 'paid',
		    escrow_released_at = $2, withdrawal_processed_at = $2,
		    approved_by = $3, transaction_reference = NULLIF($4, ''),
		    notes = NULLIF($5, ''), auto_released = $6, updated_on = NOW()
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, wr.ID, rel.ReleasedAt,
		rel.ApprovedBy, rel.TransactionReference, rel.Notes, rel.AutoReleased); err != nil {
		return nil, err
	}

	// Exactly two ledger rows per release: the provider payout and the
	// platform fee, both referencing the withdrawal record.
	ledgerQuery := `INSERT INTO transactions
		(user_id, booking_id, withdrawal_request_id, type, amount_cents, currency, direction, status, description, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, 'credit', 'completed', $7, NOW())`
	if _, err := tx.ExecContext(ctx, ledgerQuery,
		wr.ProviderID, wr.BookingID, wr.ID, domain.TransactionTypePayout,
		wr.NetProviderAmountCents, wr.Currency,
		fmt.Sprintf("Payout for booking %d", wr.BookingID)); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, ledgerQuery,
		rel.PlatformAccountID, wr.BookingID, wr.ID, domain.TransactionTypePlatformFee,
		wr.PlatformFeeTotalCents, wr.Currency,
		fmt.Sprintf("Platform fee for booking %d", wr.BookingID)); err != nil {
		return nil, err
	}

	action := domain.EscrowAuditActionApproved
	detail := fmt.Sprintf("released %d cents to provider %d", wr.NetProviderAmountCents, wr.ProviderID)
	if rel.AutoReleased {
		action = domain.EscrowAuditActionAutoReleased
	}
	auditQuery := `INSERT INTO escrow_audit_events
		(withdrawal_request_id, actor_id, action, detail, created_on)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := tx.ExecContext(ctx, auditQuery, wr.ID, rel.ApprovedBy, action, detail); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	released := rel.ReleasedAt
	wr.EscrowStatus = domain.EscrowStatusReleased
	wr.WithdrawalStatus = domain.WithdrawalStatusPaid
	wr.EscrowReleasedAt = &released
	wr.WithdrawalProcessedAt = &released
	wr.ApprovedBy = rel.ApprovedBy
	wr.TransactionReference = rel.TransactionReference
	wr.Notes = rel.Notes
	wr.AutoReleased = rel.AutoReleased
	return wr, nil
}

func (r *escrowRepository) AppendAuditEvent(ctx context.Context, ev *domain.EscrowAuditEvent) error {
	query := `INSERT INTO escrow_audit_events
		(withdrawal_request_id, actor_id, action, detail, created_on)
		VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_on`
	return r.db.QueryRowContext(ctx, query,
		ev.WithdrawalRequestID, ev.ActorID, ev.Action, ev.Detail).Scan(&ev.ID, &ev.CreatedOn)
}

func (r *escrowRepository) ListAuditEvents(ctx context.Context, withdrawalRequestID int64) ([]domain.EscrowAuditEvent, error) {
	query := `SELECT id, withdrawal_request_id, actor_id, action, COALESCE(detail, ''), created_on
		FROM escrow_audit_events WHERE withdrawal_request_id = $1 ORDER BY created_on ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, withdrawalRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.EscrowAuditEvent
	for rows.Next() {
		var ev domain.EscrowAuditEvent
		if err := rows.Scan(&ev.ID, &ev.WithdrawalRequestID, &ev.ActorID, &ev.Action, &ev.Detail, &ev.CreatedOn); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *escrowRepository) Statistics(ctx context.Context) (*domain.EscrowStatistics, error) {
	stats := &domain.EscrowStatistics{}
	query := `SELECT
		COALESCE(SUM(gross_amount_cents) FILTER (WHERE escrow_status = 'holding'), 0),
		COALESCE(SUM(net_provider_amount_cents) FILTER (WHERE escrow_status = 'released'), 0),
		COALESCE(SUM(platform_fee_total_cents) FILTER (WHERE escrow_status = 'released'), 0),
		COUNT(*) FILTER (WHERE escrow_status = 'holding'),
		COUNT(*) FILTER (WHERE withdrawal_status = 'requested'),
		COUNT(*) FILTER (WHERE escrow_status = 'released'),
		COUNT(*) FILTER (WHERE escrow_status = 'released' AND auto_released),
		COUNT(*) FILTER (WHERE withdrawal_status = 'rejected')
		FROM withdrawal_requests`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalHoldingCents, &stats.TotalReleasedCents, &stats.TotalPlatformFeeCents,
		&stats.HoldingCount, &stats.RequestedCount, &stats.ReleasedCount,
		&stats.AutoReleasedCount, &stats.RejectedCount)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *escrowRepository) CommissionReport(ctx context.Context, groupBy string, from, to time.Time) ([]domain.CommissionReportRow, error) {
	var trunc string
	switch groupBy {
	case "week":
		trunc = "week"
	case "month":
		trunc = "month"
	default:
		trunc = "day"
	}
	query := fmt.Sprintf(`SELECT to_char(date_trunc('%s', escrow_released_at), 'YYYY-MM-DD'),
		COUNT(*),
		COALESCE(SUM(gross_amount_cents), 0),
		COALESCE(SUM(client_fee_cents), 0),
		COALESCE(SUM(provider_fee_cents), 0),
		COALESCE(SUM(platform_fee_total_cents), 0),
		COALESCE(SUM(net_provider_amount_cents), 0)
		FROM withdrawal_requests
		WHERE escrow_status = 'released' AND escrow_released_at >= $1 AND escrow_released_at < $2
		GROUP BY 1 ORDER BY 1`, trunc)
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []domain.CommissionReportRow
	for rows.Next() {
		var row domain.CommissionReportRow
		if err := rows.Scan(&row.Period, &row.ReleasedCount, &row.GrossAmountCents,
			&row.ClientFeeCents, &row.ProviderFeeCents, &row.PlatformFeeTotalCents, &row.NetProviderCents); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
