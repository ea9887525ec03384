package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet holds a user's balance in minor currency units. One wallet per
// user, created lazily on first reference.
type Wallet struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Ensure balance starts at 0
	w.Balance = 0
	return nil
}

// Transaction directions.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Transaction sources.
const (
	SourceCourse  = "course"
	SourcePremium = "premium"
)

// WalletTransaction is one append-only ledger entry. Rows are never
// updated or deleted; the wallet balance equals the signed sum of its
// entries at all times.
type WalletTransaction struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	WalletID    uint      `gorm:"index;not null" json:"wallet_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Direction   string    `gorm:"not null" json:"direction"`
	Source      string    `gorm:"not null" json:"source"`
	SourceID    string    `json:"source_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionData is the wire form of a wallet mutation carried by the
// refund queue envelope.
type TransactionData struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	SourceID    string `json:"source_id,omitempty"`
	Description string `json:"description"`
}
