package repository

import (
	"context"
	"time"

	"membership-platform/backend/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	// LatestActive returns the newest subscription in status whose period has not ended at now.
	LatestActive(ctx context.Context, userID uint, status string, now time.Time) (*models.Subscription, error)
}

type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) LatestActive(ctx context.Context, userID uint, status string, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND current_period_end >= ?", userID, status, now).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}
