package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	walletRepo "taskora/database/repository/wallet"
	"taskora/models"
	"taskora/services/booking"
	"taskora/utils"
)

// WalletService exposes the customer/provider balance operations that sit
// outside the booking lifecycle: top-ups, withdrawals and statement reads.
// Refunds and payouts go through the booking engine, onto the same ledger.
type WalletService interface {
	Deposit(ctx context.Context, ownerID string, amount float64, note string) (*models.Wallet, error)
	Withdraw(ctx context.Context, ownerID string, amount float64, note string) (*models.Wallet, error)
	Balance(ctx context.Context, ownerID string) (*models.Wallet, error)
	History(ctx context.Context, ownerID string, limit int64) ([]models.WalletTransaction, error)
}

// DefaultWalletService is the production implementation.
type DefaultWalletService struct {
	Repo walletRepo.WalletRepository

	// Clock is injectable for tests; nil means time.Now.
	Clock func() time.Time
}

func (s *DefaultWalletService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Deposit credits the owner's wallet and logs the entry.
func (s *DefaultWalletService) Deposit(ctx context.Context, ownerID string, amount float64, note string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, booking.NewValidationError("deposit amount must be positive, got %.2f", amount)
	}
	txn := models.WalletTransaction{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Amount:    amount,
		Kind:      models.TxnCredit,
		Source:    models.SourceDeposit,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := s.Repo.ApplyTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("deposit failed: %w", err)
	}
	utils.GetLogger().Info("wallet deposit",
		zap.String("ownerID", ownerID), zap.Float64("amount", amount))
	return s.Repo.Get(ownerID)
}

// Withdraw debits the owner's wallet, rejecting overdrafts.
func (s *DefaultWalletService) Withdraw(ctx context.Context, ownerID string, amount float64, note string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, booking.NewValidationError("withdrawal amount must be positive, got %.2f", amount)
	}
	txn := models.WalletTransaction{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Amount:    amount,
		Kind:      models.TxnDebit,
		Source:    models.SourceWithdrawn,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := s.Repo.ApplyTransaction(ctx, txn); err != nil {
		if errors.Is(err, walletRepo.ErrInsufficientFunds) {
			return nil, booking.NewStateError("balance too low to withdraw %.2f", amount)
		}
		return nil, fmt.Errorf("withdrawal failed: %w", err)
	}
	utils.GetLogger().Info("wallet withdrawal",
		zap.String("ownerID", ownerID), zap.Float64("amount", amount))
	return s.Repo.Get(ownerID)
}

// Balance returns the owner's current wallet; absent wallets read as zero.
func (s *DefaultWalletService) Balance(ctx context.Context, ownerID string) (*models.Wallet, error) {
	return s.Repo.Get(ownerID)
}

// History returns the owner's ledger entries, newest first.
func (s *DefaultWalletService) History(ctx context.Context, ownerID string, limit int64) ([]models.WalletTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Repo.History(ownerID, limit)
}
