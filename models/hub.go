package models

import "time"

// HubID is the fixed primary key of the singleton hub row.
const HubID = "mypts-hub"

// Hub is the single global supply record for the MyPts economy.
// TotalSupply = CirculatingSupply + ReserveSupply must hold at all times;
// the reserve never goes negative — awards fail instead of overdrawing it.
//
// Modeled as a single-row table with a version counter so that multiple
// service instances stay consistent via compare-and-swap updates.
type Hub struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	TotalSupply       int64     `gorm:"not null" json:"total_supply"`
	CirculatingSupply int64     `gorm:"not null;default:0" json:"circulating_supply"`
	ReserveSupply     int64     `gorm:"not null" json:"reserve_supply"`
	Version           int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
