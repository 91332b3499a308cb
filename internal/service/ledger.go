package service

import (
	"context"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/repository"
)

// ledgerService is a read-only facade; ledger rows are written exclusively
// by the escrow release transaction.
type ledgerService struct {
	ledgerRepo repository.LedgerRepository
}

func NewLedgerService(ledgerRepo repository.LedgerRepository) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

func (s *ledgerService) GetBalance(ctx context.Context, providerID int64) (*domain.BalanceBreakdown, error) {
	return s.ledgerRepo.GetBalanceBreakdown(ctx, providerID)
}

func (s *ledgerService) GetTransactions(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Transaction, int64, error) {
	return s.ledgerRepo.ListTransactions(ctx, userID, page, pageSize)
}

func (s *ledgerService) GetSummary(ctx context.Context, userID int64) (*domain.LedgerSummary, error) {
	return s.ledgerRepo.GetSummary(ctx, userID)
}
