// services/milestone.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mypts-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MilestoneLevel pairs a level name with the lifetime points needed to hold it.
type MilestoneLevel struct {
	Name      string
	Threshold int64
}

// MilestoneLevels are strictly ordered by threshold; exactly one level matches
// any point total. Levels derive from lifetime earnings, never from the
// spendable balance — spending must not demote anyone.
var MilestoneLevels = []MilestoneLevel{
	{"Starter", 0},
	{"Explorer", 10_000},
	{"Achiever", 500_000},
	{"Leader", 1_000_000},
	{"Champion", 5_000_000},
	{"Legend", 10_000_000},
}

// LevelForPoints returns the highest level whose threshold does not exceed
// points, plus the next level up (nil at max).
func LevelForPoints(points int64) (current MilestoneLevel, next *MilestoneLevel) {
	current = MilestoneLevels[0]
	for i, lvl := range MilestoneLevels {
		if points >= lvl.Threshold {
			current = lvl
			if i+1 < len(MilestoneLevels) {
				n := MilestoneLevels[i+1]
				next = &n
			} else {
				next = nil
			}
		}
	}
	return current, next
}

// MilestoneIndex returns the position of a level name in the ladder, -1 if
// unknown.
func MilestoneIndex(name string) int {
	for i, lvl := range MilestoneLevels {
		if lvl.Name == name {
			return i
		}
	}
	return -1
}

// milestoneProgress is the percentage toward the next level: 0–99 below the
// next threshold, 100 at max level.
func milestoneProgress(points int64, current MilestoneLevel, next *MilestoneLevel) int {
	if next == nil {
		return 100
	}
	span := next.Threshold - current.Threshold
	if span <= 0 {
		return 0
	}
	progress := int(100 * (points - current.Threshold) / span)
	if progress > 99 {
		progress = 99
	}
	if progress < 0 {
		progress = 0
	}
	return progress
}

type MilestoneService struct {
	DB       *gorm.DB
	Notifier *Notifier
	Now      func() time.Time
}

func NewMilestoneService(db *gorm.DB, notifier *Notifier) *MilestoneService {
	return &MilestoneService{DB: db, Notifier: notifier, Now: time.Now}
}

// RefreshForAccount recomputes the milestone for an account from its lifetime
// earnings. A level change appends to the history (append-only, strictly
// increasing) and emits a milestone notification.
func (s *MilestoneService) RefreshForAccount(accountID string) error {
	var acct models.Account
	if err := s.DB.First(&acct, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return err
	}

	current, next := LevelForPoints(acct.LifetimeEarned)

	var ms models.ProfileMilestone
	err := s.DB.Where("account_id = ?", accountID).First(&ms).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ms = models.ProfileMilestone{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			CurrentLevel: MilestoneLevels[0].Name,
		}
		if err := s.DB.Create(&ms).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	// History only moves forward. A reversal can lower the computed level, but
	// a demotion is never recorded or announced, and re-reaching a level already
	// in the history does not add a second entry.
	highest := MilestoneIndex(ms.CurrentLevel)
	for _, h := range ms.MilestoneHistory {
		if idx := MilestoneIndex(h.Level); idx > highest {
			highest = idx
		}
	}
	leveledUp := MilestoneIndex(current.Name) > highest

	ms.CurrentLevel = current.Name
	ms.CurrentPoints = acct.LifetimeEarned
	ms.Progress = milestoneProgress(acct.LifetimeEarned, current, next)
	if next != nil {
		name := next.Name
		threshold := next.Threshold
		ms.NextLevel = &name
		ms.NextLevelThreshold = &threshold
	} else {
		ms.NextLevel = nil
		ms.NextLevelThreshold = nil
	}
	if leveledUp {
		ms.MilestoneHistory = append(ms.MilestoneHistory, models.MilestoneAchievement{
			Level:      current.Name,
			AchievedAt: s.Now(),
		})
	}

	if err := s.DB.Save(&ms).Error; err != nil {
		return err
	}

	if leveledUp {
		log.Printf("🏅 Milestone reached: account %s → %s (%d pts)", accountID, current.Name, acct.LifetimeEarned)
		if s.Notifier != nil {
			s.Notifier.MilestoneAchieved(accountID, current.Name, acct.LifetimeEarned)
		}
	}
	return nil
}

// GetProfileMilestone returns the milestone record for a profile, creating it
// lazily so new profiles see a Starter milestone instead of a 404.
func (s *MilestoneService) GetProfileMilestone(profileID string) (*models.ProfileMilestone, error) {
	var acct models.Account
	if err := s.DB.Where("profile_id = ?", profileID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account for profile %s", ErrNotFound, profileID)
		}
		return nil, err
	}

	var ms models.ProfileMilestone
	err := s.DB.Where("account_id = ?", acct.ID).First(&ms).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.RefreshForAccount(acct.ID); err != nil {
			return nil, err
		}
		err = s.DB.Where("account_id = ?", acct.ID).First(&ms).Error
	}
	if err != nil {
		return nil, err
	}
	return &ms, nil
}
