package repository

import (
	"context"

	"membership-platform/backend/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository interface {
	// GetOwned returns the conversation only when it belongs to userID.
	GetOwned(ctx context.Context, id string, userID uint) (*models.Conversation, error)
	SetTitle(ctx context.Context, id string, title string) error
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) GetOwned(ctx context.Context, id string, userID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&conv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

func (r *GormConversationRepository) SetTitle(ctx context.Context, id string, title string) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("title", title).Error
}
