// models/profile_mirror.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileMirror is a local snapshot of profile data needed by the economy.
// Owned and managed solely by this service; populated via sync worker from the
// profile service. Reconciliation reads it as its population source.
type ProfileMirror struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"uniqueIndex;not null" json:"profile_id"` // the profile service's UUID

	// Owning identity (user) in the identity service. Profiles with no owning
	// identity are orphans — reconciliation skips them.
	IdentityID *string `gorm:"index" json:"identity_id,omitempty"`

	Username string `gorm:"index" json:"username"`
	Status   string `gorm:"type:varchar(32);default:'active'" json:"status"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
