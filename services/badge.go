package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mypts-economy-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB       *gorm.DB
	Notifier *Notifier
	Now      func() time.Time
}

func NewBadgeService(db *gorm.DB, notifier *Notifier) *BadgeService {
	return &BadgeService{DB: db, Notifier: notifier, Now: time.Now}
}

// UpdateProgress sets badge progress for an account, clamped to [0,100].
// Crossing 100 for the first time completes the badge via AwardBadge — the
// only path that does. Completed badges never regress.
func (s *BadgeService) UpdateProgress(accountID, badgeID string, progress int) (*models.ProfileBadgeProgress, error) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	row, err := s.ensureProgressRow(accountID, badgeID)
	if err != nil {
		return nil, err
	}
	if row.IsCompleted {
		return row, nil
	}

	if progress >= 100 {
		return s.AwardBadge(accountID, badgeID)
	}

	row.Progress = progress
	if err := s.DB.Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// AwardBadge completes a badge for an account. Idempotent: called again for an
// already-completed badge it returns the existing record and sends no second
// notification.
func (s *BadgeService) AwardBadge(accountID, badgeID string) (*models.ProfileBadgeProgress, error) {
	var badge models.Badge
	if err := s.DB.First(&badge, "id = ?", badgeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: badge %s", ErrNotFound, badgeID)
		}
		return nil, err
	}

	row, err := s.ensureProgressRow(accountID, badgeID)
	if err != nil {
		return nil, err
	}
	if row.IsCompleted {
		return row, nil
	}

	now := s.Now()
	row.Progress = 100
	row.IsCompleted = true
	row.CompletedAt = &now
	if err := s.DB.Save(row).Error; err != nil {
		return nil, err
	}

	log.Printf("🎖️ Badge awarded: %s → account %s", badge.Name, accountID)
	if s.Notifier != nil {
		s.Notifier.BadgeEarned(accountID, badge.Code, badge.Name)
	}
	return row, nil
}

// EvaluateAutoBadges recomputes progress for every catalog badge from the
// account's counters, awarding any that completed. Run after each successful
// credit.
func (s *BadgeService) EvaluateAutoBadges(accountID string) error {
	var acct models.Account
	if err := s.DB.First(&acct, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return err
	}

	var badges []models.Badge
	if err := s.DB.Find(&badges).Error; err != nil {
		return err
	}

	for _, badge := range badges {
		progress, err := s.requirementProgress(&acct, badge.Requirements)
		if err != nil {
			log.Printf("⚠️ Badge %s progress check failed for account %s: %v", badge.Code, accountID, err)
			continue
		}
		if progress <= 0 {
			continue
		}
		if _, err := s.UpdateProgress(accountID, badge.ID, progress); err != nil {
			return err
		}
	}
	return nil
}

// requirementProgress maps a requirement variant to a 0–100 completion figure.
func (s *BadgeService) requirementProgress(acct *models.Account, req models.BadgeRequirement) (int, error) {
	switch req.Type {
	case models.BadgeReqActivityCount:
		if req.Threshold <= 0 {
			return 0, nil
		}
		var count int64
		err := s.DB.Model(&models.UserActivityRecord{}).
			Where("account_id = ? AND activity_type = ?", acct.ID, req.Condition).
			Count(&count).Error
		if err != nil {
			return 0, err
		}
		return scaleProgress(count, req.Threshold), nil

	case models.BadgeReqLifetimePoints:
		if req.Threshold <= 0 {
			return 0, nil
		}
		return scaleProgress(acct.LifetimeEarned, req.Threshold), nil

	case models.BadgeReqMilestoneLevel:
		idx := MilestoneIndex(req.Condition)
		if idx < 0 {
			return 0, fmt.Errorf("unknown milestone level %q", req.Condition)
		}
		return scaleProgress(acct.LifetimeEarned, MilestoneLevels[idx].Threshold), nil

	default:
		return 0, fmt.Errorf("unknown requirement type %q", req.Type)
	}
}

func scaleProgress(have, want int64) int {
	if want <= 0 {
		return 100
	}
	if have >= want {
		return 100
	}
	return int(have * 100 / want)
}

// CompletedBadgeCount counts completed badges for an account.
func (s *BadgeService) CompletedBadgeCount(accountID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.ProfileBadgeProgress{}).
		Where("account_id = ? AND is_completed = ?", accountID, true).
		Count(&count).Error
	return count, err
}

// ProfileBadge joins a progress row with its catalog entry for API responses.
type ProfileBadge struct {
	models.ProfileBadgeProgress
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Rarity   string `json:"rarity"`
}

// GetProfileBadges lists all badge progress for a profile's account, newest
// completions first.
func (s *BadgeService) GetProfileBadges(accountID string) ([]ProfileBadge, error) {
	var rows []models.ProfileBadgeProgress
	if err := s.DB.Where("account_id = ?", accountID).
		Order("is_completed DESC, progress DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := s.DB.Find(&badges).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Badge, len(badges))
	for _, b := range badges {
		byID[b.ID] = b
	}

	out := make([]ProfileBadge, 0, len(rows))
	for _, row := range rows {
		b := byID[row.BadgeID]
		out = append(out, ProfileBadge{
			ProfileBadgeProgress: row,
			Code:                 b.Code,
			Name:                 b.Name,
			Category:             b.Category,
			Rarity:               b.Rarity,
		})
	}
	return out, nil
}

// SeedCatalog inserts the default badge catalog, deriving codes from names.
// Already-present codes are left alone.
func (s *BadgeService) SeedCatalog() error {
	for _, badge := range models.BadgeCatalog {
		badge.ID = uuid.NewString()
		badge.Code = slug.Make(badge.Name)

		var count int64
		if err := s.DB.Model(&models.Badge{}).
			Where("code = ?", badge.Code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := s.DB.Create(&badge).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", badge.Code, err)
		}
	}
	return nil
}

func (s *BadgeService) ensureProgressRow(accountID, badgeID string) (*models.ProfileBadgeProgress, error) {
	var row models.ProfileBadgeProgress
	err := s.DB.Where("account_id = ? AND badge_id = ?", accountID, badgeID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProfileBadgeProgress{
			ID:        uuid.NewString(),
			AccountID: accountID,
			BadgeID:   badgeID,
		}
		if err := s.DB.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
