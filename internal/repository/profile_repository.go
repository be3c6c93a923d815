package repository

import (
	"context"

	"membership-platform/backend/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	GetByUser(ctx context.Context, userID uint) (*models.NicheProfile, error)
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) GetByUser(ctx context.Context, userID uint) (*models.NicheProfile, error) {
	var profile models.NicheProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}
