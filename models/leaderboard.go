package models

// LeaderboardEntry is a derived, cached ranking row per account. It is never
// authoritative — always reconstructable from Account + Badge + Milestone state
// by a rebuild.
type LeaderboardEntry struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string `gorm:"uniqueIndex;not null" json:"account_id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`

	Rank         int `gorm:"index;not null" json:"rank"` // dense, 1-based, unique
	PreviousRank int `json:"previous_rank"`              // 0 when the entry is new

	MyPtsBalance   int64  `json:"mypts_balance"`
	LifetimeEarned int64  `json:"lifetime_earned"`
	MilestoneLevel string `gorm:"index" json:"milestone_level"`
	BadgeCount     int64  `json:"badge_count"`

	Timestamps
}
