package repositories

import (
	"errors"
	"time"

	"edupay/internal/models"
)

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrDuplicateWallet = errors.New("wallet already exists")
	ErrPayoutNotFound  = errors.New("payout not found")
)

// WalletRepository defines wallet and ledger-entry persistence.
// Transactions are append-only; there is no update or delete for them.
type WalletRepository interface {
	Create(wallet *models.Wallet) error
	GetByUserID(userID string) (*models.Wallet, error)
	// GetByUserIDForUpdate locks the wallet row until the surrounding
	// transaction commits. Callers must be inside ExecuteInTransaction.
	GetByUserIDForUpdate(userID string) (*models.Wallet, error)
	Save(wallet *models.Wallet) error
	CreateTransaction(tx *models.WalletTransaction) error
	ListTransactions(walletID uint) ([]models.WalletTransaction, error)
	ExecuteInTransaction(fn func(WalletRepository) error) error
}

// MonthWindow bounds a query to one calendar month in UTC.
type MonthWindow struct {
	Start time.Time
	End   time.Time
}

// NewMonthWindow builds the UTC window for a 1-based month.
func NewMonthWindow(year int, month time.Month) MonthWindow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{Start: start, End: start.AddDate(0, 1, 0)}
}

// PayoutRepository defines payout persistence. MarkPaid and RevertPaid
// are conditional updates so settlement stays effectively-once under
// concurrent calls.
type PayoutRepository interface {
	Create(payout *models.Payout) error
	GetByID(id uint) (*models.Payout, error)
	GetBySourceID(sourceID string) (*models.Payout, error)
	// MarkPaid flips pending to paid and reports whether this call won
	// the transition.
	MarkPaid(id uint, paidAt time.Time) (bool, error)
	// RevertPaid undoes MarkPaid when the follow-up wallet credit fails.
	RevertPaid(id uint) error
	// ApplyRefund atomically decrements the split fields and marks the
	// payout refunded.
	ApplyRefund(sourceID string, amount, tutorShare, platformShare int64) error
	ListPending(window *MonthWindow) ([]models.Payout, error)
	ListByTutor(tutorID string, window *MonthWindow) ([]models.Payout, error)
}

// ProcessedEventRepository is the dedupe ledger for at-least-once inputs.
type ProcessedEventRepository interface {
	// MarkProcessed claims an event id. It reports false when another
	// delivery already claimed it.
	MarkProcessed(eventID, source string) (bool, error)
	// Unmark releases a claim after a failed downstream effect so the
	// redelivered event can be retried.
	Unmark(eventID string) error
}
