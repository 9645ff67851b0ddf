package walletRepo

import (
	"context"
	"errors"

	"taskora/models"
)

// ErrInsufficientFunds is returned when a debit would take a balance below
// zero.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// ErrDuplicateTransaction is returned when a ledger entry with the same id
// has already been applied. Callers using deterministic ids can treat it as
// success on a replay.
var ErrDuplicateTransaction = errors.New("wallet transaction already applied")

// WalletRepository is the ledger store consumed by the engine. Every balance
// mutation and its transaction log entry commit or abort together.
type WalletRepository interface {
	Get(ownerID string) (*models.Wallet, error)

	// ApplyTransaction atomically mutates the owner's balance and appends the
	// ledger entry. Credits create the wallet on first use; debits fail with
	// ErrInsufficientFunds rather than going negative.
	ApplyTransaction(ctx context.Context, txn models.WalletTransaction) error

	// History returns the owner's ledger entries, newest first.
	History(ownerID string, limit int64) ([]models.WalletTransaction, error)
}
