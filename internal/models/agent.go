package models

import "time"

// Agent is an AI persona a conversation is bound to
type Agent struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `json:"description"`
	SystemPrompt string    `gorm:"type:text;not null" json:"system_prompt"`
	Model        string    `json:"model"`
	IsPremium    bool      `gorm:"default:false" json:"is_premium"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
