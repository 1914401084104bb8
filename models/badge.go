package models

import (
	"time"
)

// Requirement types — tagged variants keyed by Type, not inheritance.
const (
	BadgeReqActivityCount  = "activity_count"  // Condition = activity type, Threshold = occurrences
	BadgeReqLifetimePoints = "lifetime_points" // Threshold = MyPts earned over lifetime
	BadgeReqMilestoneLevel = "milestone_level" // Condition = level name
)

// BadgeRequirement describes what completes a badge.
type BadgeRequirement struct {
	Type      string `json:"type"`
	Threshold int64  `json:"threshold"`
	Condition string `json:"condition,omitempty"`
}

// BadgeActivity is an optional decomposable sub-goal with its own weight.
// Weights across a badge's activities sum to 100.
type BadgeActivity struct {
	ActivityType string `json:"activity_type"`
	Points       int64  `json:"points"`
	Weight       int    `json:"weight"`
}

// Badge: static catalog entry (seeded at boot, administered via admin routes)
type Badge struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"` // slug of Name, e.g. "early-adopter"
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(32);default:'engagement'" json:"category"`
	Rarity      string `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary

	Requirements BadgeRequirement `gorm:"serializer:json;type:jsonb" json:"requirements"`
	Activities   []BadgeActivity  `gorm:"serializer:json;type:jsonb" json:"activities,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ProfileBadgeProgress is the per account×badge progress row. Created lazily on
// first progress update; once completed it never reverts.
type ProfileBadgeProgress struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string `gorm:"uniqueIndex:idx_badge_progress_account_badge;not null" json:"account_id"`
	BadgeID   string `gorm:"uniqueIndex:idx_badge_progress_account_badge;not null" json:"badge_id"`

	Progress    int        `gorm:"default:0" json:"progress"` // 0–100
	IsCompleted bool       `gorm:"default:false;index" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

// BadgeCatalog seeds the badge table on first boot. Codes are derived from
// names at seed time.
var BadgeCatalog = []Badge{
	{
		Name:        "Early Adopter",
		Description: "Joined the platform",
		Category:    "onboarding",
		Rarity:      "common",
		Requirements: BadgeRequirement{
			Type:      BadgeReqActivityCount,
			Threshold: 1,
			Condition: ActivityPlatformJoin,
		},
	},
	{
		Name:        "Social Butterfly",
		Description: "Made 25 connections",
		Category:    "engagement",
		Rarity:      "rare",
		Requirements: BadgeRequirement{
			Type:      BadgeReqActivityCount,
			Threshold: 25,
			Condition: ActivityConnectionMade,
		},
	},
	{
		Name:        "Recruiter",
		Description: "Completed 5 referrals",
		Category:    "growth",
		Rarity:      "rare",
		Requirements: BadgeRequirement{
			Type:      BadgeReqActivityCount,
			Threshold: 5,
			Condition: ActivityReferralCompleted,
		},
	},
	{
		Name:        "Point Collector",
		Description: "Earned 10,000 MyPts over your lifetime",
		Category:    "economy",
		Rarity:      "epic",
		Requirements: BadgeRequirement{
			Type:      BadgeReqLifetimePoints,
			Threshold: 10000,
		},
	},
	{
		Name:        "Legend of the Hub",
		Description: "Reached the Legend milestone",
		Category:    "economy",
		Rarity:      "legendary",
		Requirements: BadgeRequirement{
			Type:      BadgeReqMilestoneLevel,
			Condition: "Legend",
		},
	},
}
