package repository

import (
	"context"
	"errors"
	"time"

	"membership-platform/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageStore persists per-period feature counters.
type UsageStore interface {
	Get(ctx context.Context, userID uint, feature string, periodStart time.Time) (int, error)
	// Increment adds one to the counter, creating it at 1 when absent.
	Increment(ctx context.Context, userID uint, feature string, periodStart, periodEnd time.Time) error
	// Decrement removes one from the counter, never going below zero.
	Decrement(ctx context.Context, userID uint, feature string, periodStart time.Time) error
}

type GormUsageStore struct {
	db *gorm.DB
}

func NewGormUsageStore(db *gorm.DB) *GormUsageStore {
	return &GormUsageStore{db: db}
}

func (s *GormUsageStore) Get(ctx context.Context, userID uint, feature string, periodStart time.Time) (int, error) {
	var rec models.UsageRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND feature = ? AND period_start = ?", userID, feature, periodStart).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.UsageCount, nil
}

func (s *GormUsageStore) Increment(ctx context.Context, userID uint, feature string, periodStart, periodEnd time.Time) error {
	return s.incrementStmt(s.db.WithContext(ctx), userID, feature, periodStart, periodEnd).Error
}

// incrementStmt is a single INSERT ... ON CONFLICT statement so concurrent first uses
// of a day never create two rows.
func (s *GormUsageStore) incrementStmt(tx *gorm.DB, userID uint, feature string, periodStart, periodEnd time.Time) *gorm.DB {
	rec := models.UsageRecord{
		UserID:      userID,
		Feature:     feature,
		UsageCount:  1,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "feature"}, {Name: "period_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"usage_count": gorm.Expr("usage_records.usage_count + 1"),
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&rec)
}

func (s *GormUsageStore) Decrement(ctx context.Context, userID uint, feature string, periodStart time.Time) error {
	return s.db.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("user_id = ? AND feature = ? AND period_start = ? AND usage_count > 0", userID, feature, periodStart).
		UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error
}
