package models

import "time"

// Payout statuses.
const (
	PayoutPending = "pending"
	PayoutPaid    = "paid"
)

// Payout kinds.
const (
	PayoutKindCourse = "course"
	PayoutKindLive   = "live"
)

// Payout records one sale's revenue split between the tutor and the
// platform. TutorShare + PlatformShare == Amount at creation; a refund
// decrements the shares in place and flips IsRefunded, so the adjustment
// stays auditable.
type Payout struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	TutorID       string     `gorm:"index;not null" json:"tutor_id"`
	Kind          string     `gorm:"not null" json:"kind"`
	SourceID      string     `gorm:"index;not null" json:"source_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	TutorShare    int64      `gorm:"not null" json:"tutor_share"`
	PlatformShare int64      `gorm:"not null" json:"platform_share"`
	Status        string     `gorm:"not null;default:'pending'" json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	IsRefunded    bool       `gorm:"not null;default:false" json:"is_refunded"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
