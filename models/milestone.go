package models

import "time"

// MilestoneAchievement is one append-only history entry: the moment an account
// first reached a level. History is never rewritten.
type MilestoneAchievement struct {
	Level      string    `json:"level"`
	AchievedAt time.Time `json:"achieved_at"`
}

// ProfileMilestone tracks tiered progression per account, derived from
// lifetime points earned (spending never demotes a level).
type ProfileMilestone struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string `gorm:"uniqueIndex;not null" json:"account_id"`

	CurrentLevel  string `gorm:"not null;default:'Starter'" json:"current_level"`
	CurrentPoints int64  `json:"current_points" gorm:"default:0"`

	NextLevel          *string `json:"next_level,omitempty"`           // nil at max level
	NextLevelThreshold *int64  `json:"next_level_threshold,omitempty"` // nil at max level

	// 0–99 while below the next threshold, 100 at max level
	Progress int `json:"progress" gorm:"default:0"`

	MilestoneHistory []MilestoneAchievement `gorm:"serializer:json;type:jsonb" json:"milestone_history"`

	Timestamps
}
