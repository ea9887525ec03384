package wallet

import (
	"context"

	"edupay/internal/models"
)

// Service is the wallet ledger. It owns all balance mutation: every
// balance change goes through Credit, Debit or Apply and appends exactly
// one ledger entry inside the same database transaction.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error)
	Credit(ctx context.Context, userID string, amount int64, source, sourceID, description string) error
	Debit(ctx context.Context, userID string, amount int64, source, sourceID, description string) error
	// Apply records a queue-delivered transaction, crediting or debiting
	// per the envelope's type field.
	Apply(ctx context.Context, userID string, data models.TransactionData) error
	GetWallet(ctx context.Context, userID string) (*View, error)
}

// Cache defines the wallet read cache used by the service.
type Cache interface {
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID string) error
}

// View is a wallet together with its full transaction history.
type View struct {
	Wallet       models.Wallet              `json:"wallet"`
	Transactions []models.WalletTransaction `json:"transactions"`
}
