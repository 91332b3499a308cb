package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/service"
)

func newEscrowService(repo *MockEscrowRepo, notifier *fakeNotifier) service.EscrowService {
	return service.NewEscrowService(repo, notifier, service.EscrowConfig{
		HoldDays:          7,
		ClientFeeBps:      1000,
		ProviderFeeBps:    1000,
		PlatformAccountID: 999,
		Currency:          "usd",
	})
}

func holdingWithdrawal(id, providerID int64) *domain.WithdrawalRequest {
	return &domain.WithdrawalRequest{
		ID:                     id,
		ProviderID:             providerID,
		BookingID:              55,
		GrossAmountCents:       10000,
		ClientFeeCents:         1000,
		ProviderFeeCents:       1000,
		PlatformFeeTotalCents:  2000,
		NetProviderAmountCents: 9000,
		Currency:               "usd",
		EscrowStatus:           domain.EscrowStatusHolding,
		WithdrawalStatus:       domain.WithdrawalStatusNone,
		EscrowHeldAt:           time.Now().UTC().Add(-24 * time.Hour),
		AutoReleaseAt:          time.Now().UTC().Add(6 * 24 * time.Hour),
	}
}

func TestEscrowService_CreateForCompletedBooking(t *testing.T) {
	ctx := context.Background()

	booking := &domain.Booking{
		ID:               55,
		ProviderID:       2,
		TotalAmountCents: 10000,
		Status:           domain.BookingStatusCompleted,
	}

	t.Run("ComputesFeesAndHold", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		notifier := &fakeNotifier{}
		svc := newEscrowService(repo, notifier)

		repo.On("CreateIfAbsent", ctx, mock.MatchedBy(func(wr *domain.WithdrawalRequest) bool {
			return wr.GrossAmountCents == 10000 &&
				wr.ClientFeeCents == 1000 &&
				wr.ProviderFeeCents == 1000 &&
				wr.NetProviderAmountCents == 9000 &&
				wr.EscrowStatus == domain.EscrowStatusHolding &&
				wr.WithdrawalStatus == domain.WithdrawalStatusNone
		})).Return(holdingWithdrawal(7, 2), true, nil)
		repo.On("AppendAuditEvent", ctx, mock.Anything).Return(nil)

		wr, err := svc.CreateForCompletedBooking(ctx, booking)
		assert.NoError(t, err)
		assert.Equal(t, int64(9000), wr.NetProviderAmountCents)
		assert.Equal(t, []int64{2}, notifier.notified)
		repo.AssertExpectations(t)
	})

	t.Run("IdempotentOnDuplicateCompletion", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		notifier := &fakeNotifier{}
		svc := newEscrowService(repo, notifier)

		existing := holdingWithdrawal(7, 2)
		repo.On("CreateIfAbsent", ctx, mock.Anything).Return(existing, false, nil)

		wr, err := svc.CreateForCompletedBooking(ctx, booking)
		assert.NoError(t, err)
		assert.Same(t, existing, wr)
		// No audit event and no notification for the duplicate.
		assert.Empty(t, notifier.notified)
		repo.AssertNotCalled(t, "AppendAuditEvent", ctx, mock.Anything)
	})

	t.Run("RejectsNonCompletedBooking", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		_, err := svc.CreateForCompletedBooking(ctx, &domain.Booking{Status: domain.BookingStatusAccepted})
		var stateErr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &stateErr)
	})
}

func TestEscrowService_RequestWithdrawal(t *testing.T) {
	ctx := context.Background()
	cmd := &service.RequestWithdrawalCommand{BankName: "First Bank", AccountNumber: "12345678"}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		requested := holdingWithdrawal(7, 2)
		requested.WithdrawalStatus = domain.WithdrawalStatusRequested

		repo.On("GetByID", ctx, int64(7)).Return(wr, nil).Once()
		// Only the account's last four digits reach the repository.
		repo.On("MarkRequested", ctx, int64(7), "First Bank", "5678", mock.Anything).Return(nil)
		repo.On("AppendAuditEvent", ctx, mock.Anything).Return(nil)
		repo.On("GetByID", ctx, int64(7)).Return(requested, nil).Once()

		got, err := svc.RequestWithdrawal(ctx, 2, 7, cmd)
		assert.NoError(t, err)
		assert.Equal(t, domain.WithdrawalStatusRequested, got.WithdrawalStatus)
		repo.AssertExpectations(t)
	})

	t.Run("ForbiddenForOtherProvider", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		repo.On("GetByID", ctx, int64(7)).Return(holdingWithdrawal(7, 2), nil)

		_, err := svc.RequestWithdrawal(ctx, 3, 7, cmd)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("RejectedWhileAlreadyRequested", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		wr.WithdrawalStatus = domain.WithdrawalStatusRequested
		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)

		_, err := svc.RequestWithdrawal(ctx, 2, 7, cmd)
		var stateErr *domain.InvalidWithdrawalStateError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("RejectedAfterRelease", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		wr.EscrowStatus = domain.EscrowStatusReleased
		wr.WithdrawalStatus = domain.WithdrawalStatusPaid
		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)

		_, err := svc.RequestWithdrawal(ctx, 2, 7, cmd)
		var stateErr *domain.InvalidWithdrawalStateError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("ReRequestAfterRejection", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		wr.WithdrawalStatus = domain.WithdrawalStatusRejected
		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)
		repo.On("MarkRequested", ctx, int64(7), "First Bank", "5678", mock.Anything).Return(nil)
		repo.On("AppendAuditEvent", ctx, mock.Anything).Return(nil)

		_, err := svc.RequestWithdrawal(ctx, 2, 7, cmd)
		assert.NoError(t, err)
	})
}

func TestEscrowService_ApproveWithdrawal(t *testing.T) {
	ctx := context.Background()
	cmd := &service.ApproveWithdrawalCommand{TransactionReference: "wire-123", Notes: "ok"}

	t.Run("ReleasesThroughRepository", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		notifier := &fakeNotifier{}
		svc := newEscrowService(repo, notifier)

		wr := holdingWithdrawal(7, 2)
		wr.WithdrawalStatus = domain.WithdrawalStatusRequested
		released := holdingWithdrawal(7, 2)
		released.EscrowStatus = domain.EscrowStatusReleased
		released.WithdrawalStatus = domain.WithdrawalStatusPaid

		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)
		repo.On("Release", ctx, mock.MatchedBy(func(rel *repository.EscrowRelease) bool {
			return rel.WithdrawalRequestID == 7 &&
				rel.ApprovedBy != nil && *rel.ApprovedBy == 42 &&
				rel.TransactionReference == "wire-123" &&
				!rel.AutoReleased &&
				rel.PlatformAccountID == 999
		})).Return(released, nil)

		got, err := svc.ApproveWithdrawal(ctx, 42, 7, cmd)
		assert.NoError(t, err)
		assert.Equal(t, domain.WithdrawalStatusPaid, got.WithdrawalStatus)
		assert.Equal(t, []int64{2}, notifier.notified)
		repo.AssertExpectations(t)
	})

	t.Run("NoDoubleRelease", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		wr.EscrowStatus = domain.EscrowStatusReleased
		wr.WithdrawalStatus = domain.WithdrawalStatusPaid
		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)

		_, err := svc.ApproveWithdrawal(ctx, 42, 7, cmd)
		var stateErr *domain.InvalidWithdrawalStateError
		assert.ErrorAs(t, err, &stateErr)
		repo.AssertNotCalled(t, "Release", ctx, mock.Anything)
	})

	// A rejected request leaves the funds holding and auto-release eligible,
	// so an admin may settle it early just like a never-requested record.
	t.Run("RejectedRecordStillApprovable", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		wr := holdingWithdrawal(7, 2)
		wr.WithdrawalStatus = domain.WithdrawalStatusRejected
		released := holdingWithdrawal(7, 2)
		released.EscrowStatus = domain.EscrowStatusReleased
		released.WithdrawalStatus = domain.WithdrawalStatusPaid

		repo.On("GetByID", ctx, int64(7)).Return(wr, nil)
		repo.On("Release", ctx, mock.Anything).Return(released, nil)

		got, err := svc.ApproveWithdrawal(ctx, 42, 7, cmd)
		assert.NoError(t, err)
		assert.Equal(t, domain.WithdrawalStatusPaid, got.WithdrawalStatus)
	})
}

func TestEscrowService_RejectWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("ReasonRequired", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		_, err := svc.RejectWithdrawal(ctx, 42, 7, &service.RejectWithdrawalCommand{})
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("KeepsFundsInEscrow", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		notifier := &fakeNotifier{}
		svc := newEscrowService(repo, notifier)

		wr := holdingWithdrawal(7, 2)
		wr.WithdrawalStatus = domain.WithdrawalStatusRequested
		rejected := holdingWithdrawal(7, 2)
		rejected.WithdrawalStatus = domain.WithdrawalStatusRejected

		repo.On("GetByID", ctx, int64(7)).Return(wr, nil).Once()
		repo.On("MarkRejected", ctx, int64(7), "missing bank details", mock.Anything).Return(nil)
		repo.On("AppendAuditEvent", ctx, mock.Anything).Return(nil)
		repo.On("GetByID", ctx, int64(7)).Return(rejected, nil).Once()

		got, err := svc.RejectWithdrawal(ctx, 42, 7, &service.RejectWithdrawalCommand{Reason: "missing bank details"})
		assert.NoError(t, err)
		assert.Equal(t, domain.EscrowStatusHolding, got.EscrowStatus)
		assert.Equal(t, domain.WithdrawalStatusRejected, got.WithdrawalStatus)
		assert.Equal(t, []int64{2}, notifier.notified)
	})
}

func TestEscrowService_BulkApprove(t *testing.T) {
	ctx := context.Background()
	cmd := &service.ApproveWithdrawalCommand{TransactionReference: "batch-1"}

	t.Run("OneFailureDoesNotAbortBatch", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		good := holdingWithdrawal(1, 2)
		good.WithdrawalStatus = domain.WithdrawalStatusRequested
		released := holdingWithdrawal(1, 2)
		released.EscrowStatus = domain.EscrowStatusReleased
		released.WithdrawalStatus = domain.WithdrawalStatusPaid

		paid := holdingWithdrawal(2, 3)
		paid.EscrowStatus = domain.EscrowStatusReleased
		paid.WithdrawalStatus = domain.WithdrawalStatusPaid

		repo.On("GetByID", ctx, int64(1)).Return(good, nil)
		repo.On("Release", ctx, mock.Anything).Return(released, nil)
		repo.On("GetByID", ctx, int64(2)).Return(paid, nil)

		result, err := svc.BulkApprove(ctx, 42, []int64{1, 2}, cmd)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.Approved)
		assert.Equal(t, int64(1), result.Failed)
		assert.Contains(t, result.Failures, int64(2))
	})

	t.Run("EmptyBatchRejected", func(t *testing.T) {
		svc := newEscrowService(new(MockEscrowRepo), &fakeNotifier{})

		_, err := svc.BulkApprove(ctx, 42, nil, cmd)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestEscrowService_AutoReleaseDue(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("ReleasesDueRecords", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		notifier := &fakeNotifier{}
		svc := newEscrowService(repo, notifier)

		due := *holdingWithdrawal(7, 2)
		due.AutoReleaseAt = now.Add(-time.Hour)
		released := holdingWithdrawal(7, 2)
		released.EscrowStatus = domain.EscrowStatusReleased
		released.WithdrawalStatus = domain.WithdrawalStatusPaid

		repo.On("ListDueForRelease", ctx, now, int64(100)).Return([]domain.WithdrawalRequest{due}, nil)
		repo.On("Release", ctx, mock.MatchedBy(func(rel *repository.EscrowRelease) bool {
			return rel.AutoReleased && rel.ApprovedBy == nil && rel.PlatformAccountID == 999
		})).Return(released, nil)

		releasedCount, failed, err := svc.AutoReleaseDue(ctx, now, 100)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), releasedCount)
		assert.Equal(t, int64(0), failed)
		assert.Equal(t, []int64{2}, notifier.notified)
	})

	t.Run("SkipsConcurrentlySettledRecords", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		due := *holdingWithdrawal(7, 2)
		due.AutoReleaseAt = now.Add(-time.Hour)

		repo.On("ListDueForRelease", ctx, now, int64(100)).Return([]domain.WithdrawalRequest{due}, nil)
		repo.On("Release", ctx, mock.Anything).Return(nil, domain.ErrConcurrencyConflict)

		releasedCount, failed, err := svc.AutoReleaseDue(ctx, now, 100)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), releasedCount)
		assert.Equal(t, int64(0), failed)
	})

	t.Run("CountsFailures", func(t *testing.T) {
		repo := new(MockEscrowRepo)
		svc := newEscrowService(repo, &fakeNotifier{})

		due := *holdingWithdrawal(7, 2)
		due.AutoReleaseAt = now.Add(-time.Hour)

		repo.On("ListDueForRelease", ctx, now, int64(100)).Return([]domain.WithdrawalRequest{due}, nil)
		repo.On("Release", ctx, mock.Anything).Return(nil, errors.New("db down"))

		releasedCount, failed, err := svc.AutoReleaseDue(ctx, now, 100)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), releasedCount)
		assert.Equal(t, int64(1), failed)
	})
}

func TestEscrowService_PreviewFees(t *testing.T) {
	svc := newEscrowService(new(MockEscrowRepo), &fakeNotifier{})

	fees, err := svc.PreviewFees(10000)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), fees.ClientFeeCents)
	assert.Equal(t, int64(1000), fees.ProviderFeeCents)
	assert.Equal(t, int64(9000), fees.NetProviderAmountCents)
	assert.Equal(t, int64(11000), fees.ClientTotalChargeCents)

	_, err = svc.PreviewFees(0)
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
