package repositories

import (
	"errors"
	"fmt"
	"time"

	"edupay/internal/models"

	"gorm.io/gorm"
)

type payoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) Create(payout *models.Payout) error {
	if err := r.db.Create(payout).Error; err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

func (r *payoutRepository) GetByID(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return &payout, nil
}

func (r *payoutRepository) GetBySourceID(sourceID string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.Where("source_id = ?", sourceID).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return &payout, nil
}

// MarkPaid only touches rows still pending, so two concurrent settle
// calls cannot both win.
func (r *payoutRepository) MarkPaid(id uint, paidAt time.Time) (bool, error) {
	result := r.db.Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutPending).
		Updates(map[string]interface{}{
			"status":  models.PayoutPaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payout paid: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *payoutRepository) RevertPaid(id uint) error {
	result := r.db.Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, models.PayoutPaid).
		Updates(map[string]interface{}{
			"status":  models.PayoutPending,
			"paid_at": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to revert payout: %w", result.Error)
	}
	return nil
}

func (r *payoutRepository) ApplyRefund(sourceID string, amount, tutorShare, platformShare int64) error {
	result := r.db.Model(&models.Payout{}).
		Where("source_id = ?", sourceID).
		Updates(map[string]interface{}{
			"amount":         gorm.Expr("amount - ?", amount),
			"tutor_share":    gorm.Expr("tutor_share - ?", tutorShare),
			"platform_share": gorm.Expr("platform_share - ?", platformShare),
			"is_refunded":    true,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to apply refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPayoutNotFound
	}
	return nil
}

func (r *payoutRepository) ListPending(window *MonthWindow) ([]models.Payout, error) {
	query := r.db.Where("status = ?", models.PayoutPending)
	if window != nil {
		query = query.Where("created_at >= ? AND created_at < ?", window.Start, window.End)
	}

	var payouts []models.Payout
	if err := query.Order("id ASC").Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) ListByTutor(tutorID string, window *MonthWindow) ([]models.Payout, error) {
	query := r.db.Where("tutor_id = ?", tutorID)
	if window != nil {
		query = query.Where("created_at >= ? AND created_at < ?", window.Start, window.End)
	}

	var payouts []models.Payout
	if err := query.Order("id ASC").Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list tutor payouts: %w", err)
	}
	return payouts, nil
}
