package models

import "time"

// Processed event sources.
const (
	EventSourceStripe = "stripe"
	EventSourceQueue  = "rabbitmq"
)

// ProcessedEvent is the deduplication ledger for at-least-once inputs.
// The unique index on EventID makes the first insert win; replayed
// webhook deliveries and redelivered queue messages are acknowledged
// without side effects.
type ProcessedEvent struct {
	ID        uint      `gorm:"primarykey"`
	EventID   string    `gorm:"uniqueIndex;not null"`
	Source    string    `gorm:"not null"`
	CreatedAt time.Time
}
