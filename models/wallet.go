package models

import "time"

// TransactionSource tags why money moved.
type TransactionSource string

const (
	SourceRefund    TransactionSource = "refund"
	SourceDeposit   TransactionSource = "deposit"
	SourcePayment   TransactionSource = "payment"
	SourceWithdrawn TransactionSource = "withdrawn"
)

// TransactionKind is the direction of a wallet mutation.
type TransactionKind string

const (
	TxnCredit TransactionKind = "credit"
	TxnDebit  TransactionKind = "debit"
)

// Wallet is a per-owner balance. The owner may be a customer or a provider.
type Wallet struct {
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Balance   float64   `bson:"balance" json:"balance"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WalletTransaction is one append-only ledger entry. Every balance mutation
// writes exactly one of these in the same transaction.
type WalletTransaction struct {
	ID        string            `bson:"id" json:"id"`
	OwnerID   string            `bson:"ownerId" json:"ownerId"`
	BookingID string            `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Amount    float64           `bson:"amount" json:"amount"`
	Kind      TransactionKind   `bson:"kind" json:"kind"`
	Source    TransactionSource `bson:"source" json:"source"`
	Note      string            `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
}
