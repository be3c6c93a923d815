package models

import "time"

// FeatureAIChat is the usage feature key counted by the chat endpoint
const FeatureAIChat = "ai_chat_interactions"

// UsageRecord counts uses of a feature by a user within one period
type UsageRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_usage_user_feature_period,priority:1" json:"user_id"`
	Feature     string    `gorm:"not null;uniqueIndex:idx_usage_user_feature_period,priority:2" json:"feature"`
	UsageCount  int       `gorm:"not null;default:0" json:"usage_count"`
	PeriodStart time.Time `gorm:"type:date;not null;uniqueIndex:idx_usage_user_feature_period,priority:3" json:"period_start"`
	PeriodEnd   time.Time `gorm:"type:date;not null" json:"period_end"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
