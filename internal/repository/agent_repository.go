package repository

import (
	"context"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/pkg/cache"

	"gorm.io/gorm"
)

type AgentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Agent, error)
}

type GormAgentRepository struct {
	db *gorm.DB
}

func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

func (r *GormAgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		return nil, notFound(err)
	}
	return &agent, nil
}

// CachedAgentRepository serves agent lookups from an in-process cache.
// Misses are not cached.
type CachedAgentRepository struct {
	next  AgentRepository
	cache *cache.Cache[string, models.Agent]
}

func NewCachedAgentRepository(next AgentRepository, c *cache.Cache[string, models.Agent]) *CachedAgentRepository {
	return &CachedAgentRepository{next: next, cache: c}
}

func (r *CachedAgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	if agent, ok := r.cache.Get(id); ok {
		return &agent, nil
	}
	agent, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id, *agent)
	return agent, nil
}
