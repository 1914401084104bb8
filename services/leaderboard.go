// services/leaderboard.go
package services

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"mypts-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaderboardService maintains the derived ranking over all accounts. Reads
// never trigger a rebuild — Rebuild is invoked explicitly, on a schedule or on
// demand, so read latency stays decoupled from recomputation cost.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Rebuild re-sorts every account into dense ranks 1..N. Ties break by lifetime
// earnings descending, then account ID ascending so reruns are deterministic.
// It works on a snapshot read and only overwrites rank fields — reward
// issuance is never blocked by a rebuild.
func (s *LeaderboardService) Rebuild() error {
	var accounts []models.Account
	if err := s.DB.Order("balance DESC, lifetime_earned DESC, id ASC").Find(&accounts).Error; err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	// Defensive re-sort: SQLite and Postgres agree, but the ordering contract
	// lives here, not in the driver.
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Balance != accounts[j].Balance {
			return accounts[i].Balance > accounts[j].Balance
		}
		if accounts[i].LifetimeEarned != accounts[j].LifetimeEarned {
			return accounts[i].LifetimeEarned > accounts[j].LifetimeEarned
		}
		return accounts[i].ID < accounts[j].ID
	})

	milestones := make(map[string]string)
	var msRows []models.ProfileMilestone
	if err := s.DB.Find(&msRows).Error; err != nil {
		return err
	}
	for _, ms := range msRows {
		milestones[ms.AccountID] = ms.CurrentLevel
	}

	type badgeCount struct {
		AccountID string
		Count     int64
	}
	var counts []badgeCount
	if err := s.DB.Model(&models.ProfileBadgeProgress{}).
		Select("account_id, COUNT(*) as count").
		Where("is_completed = ?", true).
		Group("account_id").
		Scan(&counts).Error; err != nil {
		return err
	}
	badgeCounts := make(map[string]int64, len(counts))
	for _, c := range counts {
		badgeCounts[c.AccountID] = c.Count
	}

	var existing []models.LeaderboardEntry
	if err := s.DB.Find(&existing).Error; err != nil {
		return err
	}
	prevRanks := make(map[string]int, len(existing))
	for _, e := range existing {
		prevRanks[e.AccountID] = e.Rank
	}

	entries := make([]models.LeaderboardEntry, 0, len(accounts))
	for i, acct := range accounts {
		level := milestones[acct.ID]
		if level == "" {
			level = MilestoneLevels[0].Name
		}
		entries = append(entries, models.LeaderboardEntry{
			ID:             uuid.NewString(),
			AccountID:      acct.ID,
			ProfileID:      acct.ProfileID,
			Rank:           i + 1,
			PreviousRank:   prevRanks[acct.ID],
			MyPtsBalance:   acct.Balance,
			LifetimeEarned: acct.LifetimeEarned,
			MilestoneLevel: level,
			BadgeCount:     badgeCounts[acct.ID],
		})
	}

	if err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"profile_id", "rank", "previous_rank", "my_pts_balance",
			"lifetime_earned", "milestone_level", "badge_count", "updated_at",
		}),
	}).Create(&entries).Error; err != nil {
		return err
	}

	log.Printf("🏆 Leaderboard rebuilt: %d entries ranked", len(entries))
	return nil
}

// RefreshEntry updates the cached snapshot fields (balance, milestone, badge
// count) of one entry without touching ranks. Rank only moves on Rebuild.
func (s *LeaderboardService) RefreshEntry(accountID string) error {
	var entry models.LeaderboardEntry
	err := s.DB.Where("account_id = ?", accountID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // account not ranked yet; next rebuild picks it up
	}
	if err != nil {
		return err
	}

	var acct models.Account
	if err := s.DB.First(&acct, "id = ?", accountID).Error; err != nil {
		return err
	}

	var ms models.ProfileMilestone
	level := MilestoneLevels[0].Name
	if err := s.DB.Where("account_id = ?", accountID).First(&ms).Error; err == nil {
		level = ms.CurrentLevel
	}

	var badgeCount int64
	if err := s.DB.Model(&models.ProfileBadgeProgress{}).
		Where("account_id = ? AND is_completed = ?", accountID, true).
		Count(&badgeCount).Error; err != nil {
		return err
	}

	return s.DB.Model(&models.LeaderboardEntry{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"my_pts_balance":  acct.Balance,
			"lifetime_earned": acct.LifetimeEarned,
			"milestone_level": level,
			"badge_count":     badgeCount,
		}).Error
}

// GetTopEntries returns the highest-ranked entries.
func (s *LeaderboardService) GetTopEntries(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.LeaderboardEntry
	err := s.DB.Order("rank ASC").Limit(limit).Find(&entries).Error
	return entries, err
}

// GetEntriesByMilestone returns top entries filtered to one milestone level.
func (s *LeaderboardService) GetEntriesByMilestone(level string, limit int) ([]models.LeaderboardEntry, error) {
	if MilestoneIndex(level) < 0 {
		return nil, fmt.Errorf("%w: unknown milestone level %q", ErrValidation, level)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.LeaderboardEntry
	err := s.DB.Where("milestone_level = ?", level).
		Order("rank ASC").Limit(limit).Find(&entries).Error
	return entries, err
}

// GetProfileRank returns the leaderboard entry for one profile.
func (s *LeaderboardService) GetProfileRank(profileID string) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	if err := s.DB.Where("profile_id = ?", profileID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no leaderboard entry for profile %s", ErrNotFound, profileID)
		}
		return nil, err
	}
	return &entry, nil
}
