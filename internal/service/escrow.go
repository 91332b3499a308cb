package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/utils"
)

// EscrowConfig is injected at startup; the platform ledger account is an
// explicit configuration value, not a well-known id.
type EscrowConfig struct {
	HoldDays          int
	ClientFeeBps      int64
	ProviderFeeBps    int64
	PlatformAccountID int64
	Currency          string
}

type escrowService struct {
	escrowRepo repository.EscrowRepository
	notifier   NotificationService
	cfg        EscrowConfig
}

func NewEscrowService(escrowRepo repository.EscrowRepository, notifier NotificationService, cfg EscrowConfig) EscrowService {
	return &escrowService{
		escrowRepo: escrowRepo,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// CreateForCompletedBooking holds the booking's funds in escrow. Duplicate
// completion triggers return the existing record unchanged.
func (s *escrowService) CreateForCompletedBooking(ctx context.Context, booking *domain.Booking) (*domain.WithdrawalRequest, error) {
	if booking.Status != domain.BookingStatusCompleted {
		return nil, &domain.InvalidStateTransitionError{Event: "hold escrow for", From: booking.Status}
	}

	fees, err := utils.CalculateFeesBps(booking.TotalAmountCents, s.cfg.ClientFeeBps, s.cfg.ProviderFeeBps)
	if err != nil {
		return nil, domain.NewValidationError("total_amount", err.Error())
	}

	now := time.Now().UTC()
	wr := &domain.WithdrawalRequest{
		ProviderID:             booking.ProviderID,
		BookingID:              booking.ID,
		GrossAmountCents:       fees.GrossAmountCents,
		ClientFeeCents:         fees.ClientFeeCents,
		ProviderFeeCents:       fees.ProviderFeeCents,
		PlatformFeeTotalCents:  fees.PlatformFeeTotalCents,
		NetProviderAmountCents: fees.NetProviderAmountCents,
		Currency:               s.cfg.Currency,
		EscrowStatus:           domain.EscrowStatusHolding,
		WithdrawalStatus:       domain.WithdrawalStatusNone,
		EscrowHeldAt:           now,
		AutoReleaseAt:          now.AddDate(0, 0, s.cfg.HoldDays),
	}

	created, isNew, err := s.escrowRepo.CreateIfAbsent(ctx, wr)
	if err != nil {
		return nil, err
	}
	if !isNew {
		logger.Debug("Escrow already exists for booking", "booking_id", booking.ID, "withdrawal_id", created.ID)
		return created, nil
	}

	_ = s.escrowRepo.AppendAuditEvent(ctx, &domain.EscrowAuditEvent{
		WithdrawalRequestID: created.ID,
		Action:              domain.EscrowAuditActionHeld,
		Detail:              fmt.Sprintf("held %d cents gross, auto-release at %s", created.GrossAmountCents, created.AutoReleaseAt.Format(time.RFC3339)),
	})

	s.notifier.Notify(ctx, created.ProviderID, "Funds held in escrow",
		fmt.Sprintf("Earnings for booking %d are in escrow and release on %s unless withdrawn earlier.",
			booking.ID, created.AutoReleaseAt.Format("2006-01-02")),
		map[string]string{"type": "ESCROW_HELD", "withdrawal_id": fmt.Sprintf("%d", created.ID)})

	logger.Info("Escrow created", "booking_id", booking.ID, "withdrawal_id", created.ID,
		"gross_cents", created.GrossAmountCents, "net_cents", created.NetProviderAmountCents)
	return created, nil
}

func (s *escrowService) GetWithdrawal(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	return s.escrowRepo.GetByID(ctx, id)
}

func (s *escrowService) ListWithdrawals(ctx context.Context, filter repository.EscrowFilter) ([]domain.WithdrawalRequest, int64, error) {
	return s.escrowRepo.List(ctx, filter)
}

func (s *escrowService) ListProviderWithdrawals(ctx context.Context, providerID int64, page, pageSize int64) ([]domain.WithdrawalRequest, int64, error) {
	return s.escrowRepo.ListByProvider(ctx, providerID, page, pageSize)
}

func (s *escrowService) RequestWithdrawal(ctx context.Context, providerID, withdrawalID int64, cmd *RequestWithdrawalCommand) (*domain.WithdrawalRequest, error) {
	wr, err := s.escrowRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if wr.ProviderID != providerID {
		return nil, domain.ErrForbidden
	}
	if !wr.CanRequestWithdrawal() {
		return nil, &domain.InvalidWithdrawalStateError{
			Event: "request", EscrowStatus: wr.EscrowStatus, WithdrawalStatus: wr.WithdrawalStatus,
		}
	}

	// Only the last four digits of the account number are kept in
	// queryable columns.
	last4 := cmd.AccountNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}

	now := time.Now().UTC()
	if err := s.escrowRepo.MarkRequested(ctx, wr.ID, cmd.BankName, last4, now); err != nil {
		return nil, err
	}

	_ = s.escrowRepo.AppendAuditEvent(ctx, &domain.EscrowAuditEvent{
		WithdrawalRequestID: wr.ID,
		ActorID:             &providerID,
		Action:              domain.EscrowAuditActionRequested,
		Detail:              fmt.Sprintf("bank %q account ****%s", cmd.BankName, last4),
	})

	logger.Info("Withdrawal requested", "withdrawal_id", wr.ID, "provider_id", providerID)
	return s.escrowRepo.GetByID(ctx, wr.ID)
}

func (s *escrowService) CancelWithdrawal(ctx context.Context, providerID, withdrawalID int64) (*domain.WithdrawalRequest, error) {
	wr, err := s.escrowRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if wr.ProviderID != providerID {
		return nil, domain.ErrForbidden
	}
	if !wr.CanCancel() {
		return nil, &domain.InvalidWithdrawalStateError{
			Event: "cancel", EscrowStatus: wr.EscrowStatus, WithdrawalStatus: wr.WithdrawalStatus,
		}
	}

	// Cancelling the request does not release funds and does not reset the
	// auto-release deadline.
	if err := s.escrowRepo.MarkCancelled(ctx, wr.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	_ = s.escrowRepo.AppendAuditEvent(ctx, &domain.EscrowAuditEvent{
		WithdrawalRequestID: wr.ID,
		ActorID:             &providerID,
		Action:              domain.EscrowAuditActionCancelled,
	})

	logger.Info("Withdrawal cancelled by provider", "withdrawal_id", wr.ID, "provider_id", providerID)
	return s.escrowRepo.GetByID(ctx, wr.ID)
}

func (s *escrowService) ApproveWithdrawal(ctx context.Context, adminID, withdrawalID int64, cmd *ApproveWithdrawalCommand) (*domain.WithdrawalRequest, error) {
	wr, err := s.escrowRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if !wr.CanApprove() {
		return nil, &domain.InvalidWithdrawalStateError{
			Event: "approve", EscrowStatus: wr.EscrowStatus, WithdrawalStatus: wr.WithdrawalStatus,
		}
	}

	released, err := s.escrowRepo.Release(ctx, &repository.EscrowRelease{
		WithdrawalRequestID:  wr.ID,
		ApprovedBy:           &adminID,
		TransactionReference: cmd.TransactionReference,
		Notes:                cmd.Notes,
		PlatformAccountID:    s.cfg.PlatformAccountID,
		ReleasedAt:           time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, released.ProviderID, "Withdrawal approved",
		fmt.Sprintf("Your payout of %d cents for booking %d has been released.",
			released.NetProviderAmountCents, released.BookingID),
		map[string]string{"type": "WITHDRAWAL_APPROVED", "withdrawal_id": fmt.Sprintf("%d", released.ID)})

	logger.Info("Withdrawal approved", "withdrawal_id", released.ID, "admin_id", adminID,
		"net_cents", released.NetProviderAmountCents)
	return released, nil
}

func (s *escrowService) RejectWithdrawal(ctx context.Context, adminID, withdrawalID int64, cmd *RejectWithdrawalCommand) (*domain.WithdrawalRequest, error) {
	if cmd.Reason == "" {
		return nil, domain.NewValidationError("reason", "rejection reason is required")
	}
	if len(cmd.Reason) > 500 {
		return nil, domain.NewValidationError("reason", "rejection reason must not exceed 500 characters")
	}

	wr, err := s.escrowRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if !wr.CanReject() {
		return nil, &domain.InvalidWithdrawalStateError{
			Event: "reject", EscrowStatus: wr.EscrowStatus, WithdrawalStatus: wr.WithdrawalStatus,
		}
	}

	// Funds stay in escrow: the provider may re-request and the original
	// auto-release deadline still applies.
	if err := s.escrowRepo.MarkRejected(ctx, wr.ID, cmd.Reason, time.Now().UTC()); err != nil {
		return nil, err
	}

	_ = s.escrowRepo.AppendAuditEvent(ctx, &domain.EscrowAuditEvent{
		WithdrawalRequestID: wr.ID,
		ActorID:             &adminID,
		Action:              domain.EscrowAuditActionRejected,
		Detail:              cmd.Reason,
	})

	s.notifier.Notify(ctx, wr.ProviderID, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal request for booking %d was rejected: %s", wr.BookingID, cmd.Reason),
		map[string]string{"type": "WITHDRAWAL_REJECTED", "withdrawal_id": fmt.Sprintf("%d", wr.ID)})

	logger.Info("Withdrawal rejected", "withdrawal_id", wr.ID, "admin_id", adminID)
	return s.escrowRepo.GetByID(ctx, wr.ID)
}

// BulkApprove applies ApproveWithdrawal to each id independently; one
// failure never aborts the batch.
func (s *escrowService) BulkApprove(ctx context.Context, adminID int64, withdrawalIDs []int64, cmd *ApproveWithdrawalCommand) (*BulkApproveResult, error) {
	if len(withdrawalIDs) == 0 {
		return nil, domain.NewValidationError("withdrawal_ids", "at least one withdrawal id is required")
	}

	result := &BulkApproveResult{Failures: make(map[int64]string)}
	for _, id := range withdrawalIDs {
		if _, err := s.ApproveWithdrawal(ctx, adminID, id, cmd); err != nil {
			result.Failed++
			result.Failures[id] = err.Error()
			logger.Warn("Bulk approve: record failed", "withdrawal_id", id, "error", err)
			continue
		}
		result.Approved++
	}
	return result, nil
}

// AutoReleaseDue releases every record past its deadline. Each record is
// claimed by the guarded release transaction, so concurrent sweeps (or a
// sweep racing an admin approval) settle each record exactly once.
func (s *escrowService) AutoReleaseDue(ctx context.Context, now time.Time, limit int64) (int64, int64, error) {
	due, err := s.escrowRepo.ListDueForRelease(ctx, now, limit)
	if err != nil {
		return 0, 0, err
	}

	var released, failed int64
	for i := range due {
		wr := &due[i]
		if !wr.IsReleasable(now) {
			continue
		}
		_, err := s.escrowRepo.Release(ctx, &repository.EscrowRelease{
			WithdrawalRequestID: wr.ID,
			AutoReleased:        true,
			PlatformAccountID:   s.cfg.PlatformAccountID,
			ReleasedAt:          now,
		})
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			// Another sweep or an admin got there first.
			logger.Debug("Auto-release skipped, record already settled", "withdrawal_id", wr.ID)
			continue
		}
		if err != nil {
			failed++
			logger.Error("Auto-release failed", "withdrawal_id", wr.ID, "error", err)
			continue
		}
		released++

		s.notifier.Notify(ctx, wr.ProviderID, "Escrow released",
			fmt.Sprintf("Escrow for booking %d reached its release date; %d cents have been paid out.",
				wr.BookingID, wr.NetProviderAmountCents),
			map[string]string{"type": "ESCROW_AUTO_RELEASED", "withdrawal_id": fmt.Sprintf("%d", wr.ID)})
	}
	return released, failed, nil
}

func (s *escrowService) PreviewFees(grossCents int64) (*utils.FeeBreakdown, error) {
	fees, err := utils.CalculateFeesBps(grossCents, s.cfg.ClientFeeBps, s.cfg.ProviderFeeBps)
	if err != nil {
		return nil, domain.NewValidationError("gross_amount", err.Error())
	}
	return fees, nil
}

func (s *escrowService) GetAuditTrail(ctx context.Context, withdrawalID int64) ([]domain.EscrowAuditEvent, error) {
	if _, err := s.escrowRepo.GetByID(ctx, withdrawalID); err != nil {
		return nil, err
	}
	return s.escrowRepo.ListAuditEvents(ctx, withdrawalID)
}

func (s *escrowService) Statistics(ctx context.Context) (*domain.EscrowStatistics, error) {
	return s.escrowRepo.Statistics(ctx)
}

func (s *escrowService) CommissionReport(ctx context.Context, groupBy string, from, to time.Time) ([]domain.CommissionReportRow, error) {
	switch groupBy {
	case "day", "week", "month":
	default:
		return nil, domain.NewValidationError("group_by", "must be one of day, week, month")
	}
	return s.escrowRepo.CommissionReport(ctx, groupBy, from, to)
}
