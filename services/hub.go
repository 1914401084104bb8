// services/hub.go
package services

import (
	"errors"
	"fmt"
	"log"

	"mypts-economy-system/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// supplyPrinter groups supply figures with thousands separators for log lines.
var supplyPrinter = message.NewPrinter(language.English)

type HubService struct {
	DB *gorm.DB
}

func NewHubService(db *gorm.DB) *HubService {
	return &HubService{DB: db}
}

// EnsureHub creates the singleton hub row on first boot. The full supply starts
// in reserve; points only enter circulation through ledger credits.
func (s *HubService) EnsureHub(totalSupply int64) (*models.Hub, error) {
	if totalSupply <= 0 {
		return nil, fmt.Errorf("%w: total supply must be positive", ErrValidation)
	}

	var hub models.Hub
	err := s.DB.First(&hub, "id = ?", models.HubID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hub = models.Hub{
			ID:                models.HubID,
			TotalSupply:       totalSupply,
			CirculatingSupply: 0,
			ReserveSupply:     totalSupply,
		}
		if err := s.DB.Create(&hub).Error; err != nil {
			return nil, err
		}
		log.Printf("🏦 Hub initialized: total=%s reserve=%s",
			supplyPrinter.Sprintf("%d", hub.TotalSupply),
			supplyPrinter.Sprintf("%d", hub.ReserveSupply))
		return &hub, nil
	}
	if err != nil {
		return nil, err
	}
	return &hub, nil
}

// GetHub returns the current supply record.
func (s *HubService) GetHub() (*models.Hub, error) {
	var hub models.Hub
	if err := s.DB.First(&hub, "id = ?", models.HubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: hub record", ErrNotFound)
		}
		return nil, err
	}
	return &hub, nil
}

// moveToCirculation debits the reserve and credits circulating supply inside
// tx, guarded by the hub version counter. TotalSupply never changes.
func moveToCirculation(tx *gorm.DB, amount int64) error {
	return moveSupply(tx, amount, -amount)
}

// moveToReserve returns points from circulation to the reserve (spends and
// earn-reversals) inside tx.
func moveToReserve(tx *gorm.DB, amount int64) error {
	return moveSupply(tx, -amount, amount)
}

func moveSupply(tx *gorm.DB, circulatingDelta, reserveDelta int64) error {
	var hub models.Hub
	if err := tx.First(&hub, "id = ?", models.HubID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: hub record", ErrNotFound)
		}
		return err
	}

	newCirculating := hub.CirculatingSupply + circulatingDelta
	newReserve := hub.ReserveSupply + reserveDelta
	if newReserve < 0 {
		return ErrReserveExhausted
	}
	if newCirculating < 0 {
		// Conservation would break — something upstream is wrong.
		return fmt.Errorf("%w: circulating supply would go negative", ErrValidation)
	}

	res := tx.Model(&models.Hub{}).
		Where("id = ? AND version = ?", models.HubID, hub.Version).
		Updates(map[string]interface{}{
			"circulating_supply": newCirculating,
			"reserve_supply":     newReserve,
			"version":            hub.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	return nil
}
