package models

import (
	"time"
)

// Activity types the engine knows about out of the box. Rules are keyed by
// activity type, so new types only need a new rule row.
const (
	ActivityPlatformJoin      = "platform_join"
	ActivityDailyLogin        = "daily_login"
	ActivityProfileCompleted  = "profile_completed"
	ActivityReferralCompleted = "referral_completed"
	ActivityConnectionMade    = "connection_made"
)

// ActivityRewardRule decides how an activity event converts into MyPts.
// Rules are administered out-of-band; the engine only reads them.
type ActivityRewardRule struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ActivityType   string `gorm:"uniqueIndex;not null" json:"activity_type"`
	PointsRewarded int64  `gorm:"not null" json:"points_rewarded"`
	Category       string `gorm:"type:varchar(32);default:'engagement'" json:"category"`
	Description    string `gorm:"type:text" json:"description"`

	// Minimum seconds between repeated rewards. 0 = no cooldown.
	CooldownSeconds int64 `gorm:"default:0" json:"cooldown_seconds"`
	// Max rewards per calendar day (UTC). nil = unlimited.
	MaxRewardsPerDay *int `json:"max_rewards_per_day,omitempty"`

	IsEnabled bool `gorm:"default:true;index" json:"is_enabled"`

	Timestamps
}

// CooldownPeriod returns the rule cooldown as a duration.
func (r *ActivityRewardRule) CooldownPeriod() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// UserActivityRecord is written once per rewarded activity occurrence.
// Cooldown and daily-cap checks query these records.
type UserActivityRecord struct {
	ID           string                 `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID    string                 `gorm:"index:idx_activity_account_type;not null" json:"account_id"`
	ActivityType string                 `gorm:"index:idx_activity_account_type;not null" json:"activity_type"`
	Timestamp    time.Time              `gorm:"not null;index" json:"timestamp"`
	PointsEarned int64                  `json:"points_earned"`
	Metadata     map[string]interface{} `gorm:"serializer:json;type:jsonb" json:"metadata,omitempty"`
}

func intPtr(v int) *int { return &v }

// DefaultRewardRules seed the rule table on first boot (existing rows keep
// their administered values).
var DefaultRewardRules = []ActivityRewardRule{
	{
		ActivityType:     ActivityPlatformJoin,
		PointsRewarded:   100,
		Category:         "onboarding",
		Description:      "Joined the platform",
		CooldownSeconds:  0,
		MaxRewardsPerDay: intPtr(1), // one-time reward: no cooldown, capped at one per day
	},
	{
		ActivityType:     ActivityDailyLogin,
		PointsRewarded:   10,
		Category:         "engagement",
		Description:      "Daily login",
		CooldownSeconds:  int64((20 * time.Hour) / time.Second),
		MaxRewardsPerDay: intPtr(1),
	},
	{
		ActivityType:     ActivityProfileCompleted,
		PointsRewarded:   50,
		Category:         "onboarding",
		Description:      "Completed profile details",
		CooldownSeconds:  0,
		MaxRewardsPerDay: intPtr(1),
	},
	{
		ActivityType:     ActivityReferralCompleted,
		PointsRewarded:   250,
		Category:         "growth",
		Description:      "Referred a new member who joined",
		CooldownSeconds:  int64(time.Hour / time.Second),
		MaxRewardsPerDay: intPtr(10),
	},
	{
		ActivityType:     ActivityConnectionMade,
		PointsRewarded:   5,
		Category:         "engagement",
		Description:      "Made a new connection",
		CooldownSeconds:  int64(time.Minute / time.Second),
		MaxRewardsPerDay: intPtr(20),
	},
}
