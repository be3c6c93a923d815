package models

import (
	"time"

	"gorm.io/datatypes"
)

// NicheProfile holds optional per-user business context used to personalize replies
type NicheProfile struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	UserID         uint                        `gorm:"uniqueIndex;not null" json:"user_id"`
	BusinessName   string                      `json:"business_name"`
	Niche          string                      `json:"niche"`
	TargetAudience string                      `json:"target_audience"`
	BrandVoice     string                      `json:"brand_voice"`
	Goals          string                      `json:"goals"`
	ContentPillars datatypes.JSONSlice[string] `json:"content_pillars"`
	Platforms      datatypes.JSONSlice[string] `json:"platforms"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}
