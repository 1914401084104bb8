package models

import (
	"time"

	"gorm.io/gorm"
)

// Account holds the MyPts balance for a single profile (one account per profile).
// Balance must always equal LifetimeEarned - LifetimeSpent and never go negative.
type Account struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"uniqueIndex;not null" json:"profile_id"` // links to profile service

	Balance        int64 `json:"balance" gorm:"default:0"`
	LifetimeEarned int64 `json:"lifetime_earned" gorm:"default:0"`
	LifetimeSpent  int64 `json:"lifetime_spent" gorm:"default:0"`

	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`

	// Optimistic lock counter — bumped on every balance mutation
	Version int64 `json:"-" gorm:"default:0"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
