package repositories

import (
	"fmt"

	"edupay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type processedEventRepository struct {
	db *gorm.DB
}

func NewProcessedEventRepository(db *gorm.DB) ProcessedEventRepository {
	return &processedEventRepository{db: db}
}

// MarkProcessed inserts the event id with ON CONFLICT DO NOTHING. The
// unique index decides the winner, so concurrent deliveries of the same
// event cannot both claim it.
func (r *processedEventRepository) MarkProcessed(eventID, source string) (bool, error) {
	event := models.ProcessedEvent{EventID: eventID, Source: source}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record processed event: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *processedEventRepository) Unmark(eventID string) error {
	result := r.db.Where("event_id = ?", eventID).Delete(&models.ProcessedEvent{})
	if result.Error != nil {
		return fmt.Errorf("failed to release processed event: %w", result.Error)
	}
	return nil
}
