// services/activity.go
package services

import (
	"errors"
	"fmt"
	"time"

	"mypts-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackReason explains a non-awarded (or awarded) tracking outcome. These are
// normal return values, not errors — callers branch on them directly.
type TrackReason string

const (
	ReasonAwarded          TrackReason = "AWARDED"
	ReasonDisabled         TrackReason = "DISABLED"
	ReasonCooldown         TrackReason = "COOLDOWN"
	ReasonDailyLimit       TrackReason = "DAILY_LIMIT"
	ReasonReserveExhausted TrackReason = "RESERVE_EXHAUSTED"
)

// TrackResult is the outcome of a TrackActivity call.
type TrackResult struct {
	Awarded      bool                `json:"awarded"`
	PointsEarned int64               `json:"points_earned"`
	Reason       TrackReason         `json:"reason"`
	Transaction  *models.Transaction `json:"transaction,omitempty"`
}

// ActivityService turns activity events into ledger credits according to the
// reward rule table.
type ActivityService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Now    func() time.Time
}

func NewActivityService(db *gorm.DB, ledger *LedgerService) *ActivityService {
	return &ActivityService{DB: db, Ledger: ledger, Now: time.Now}
}

// TrackActivity evaluates the rule for an activity event and, if it passes,
// credits the profile's account and records the occurrence. Rule checks and
// the credit run in one DB transaction so two concurrent calls for the same
// account+activity inside a cooldown window resolve to exactly one award.
//
// One-time rules (cooldown 0, max one per day) go through the same checks —
// no separate path.
func (s *ActivityService) TrackActivity(profileID, activityType string, metadata map[string]interface{}) (*TrackResult, error) {
	if profileID == "" || activityType == "" {
		return nil, fmt.Errorf("%w: profile id and activity type required", ErrValidation)
	}

	result := &TrackResult{}
	err := withConflictRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			var rule models.ActivityRewardRule
			if err := tx.Where("activity_type = ?", activityType).First(&rule).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					*result = TrackResult{Reason: ReasonDisabled}
					return nil
				}
				return err
			}
			if !rule.IsEnabled {
				*result = TrackResult{Reason: ReasonDisabled}
				return nil
			}

			acct, err := ensureAccountTx(tx, profileID)
			if err != nil {
				return err
			}

			now := s.Now()

			if rule.CooldownSeconds > 0 {
				var last models.UserActivityRecord
				err := tx.Where("account_id = ? AND activity_type = ?", acct.ID, activityType).
					Order("timestamp DESC").
					First(&last).Error
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				if err == nil && now.Sub(last.Timestamp) < rule.CooldownPeriod() {
					*result = TrackResult{Reason: ReasonCooldown}
					return nil
				}
			}

			if rule.MaxRewardsPerDay != nil {
				dayStart := now.UTC().Truncate(24 * time.Hour)
				var todayCount int64
				if err := tx.Model(&models.UserActivityRecord{}).
					Where("account_id = ? AND activity_type = ? AND timestamp >= ?", acct.ID, activityType, dayStart).
					Count(&todayCount).Error; err != nil {
					return err
				}
				if todayCount >= int64(*rule.MaxRewardsPerDay) {
					*result = TrackResult{Reason: ReasonDailyLimit}
					return nil
				}
			}

			if metadata == nil {
				metadata = map[string]interface{}{}
			}
			metadata[models.MetaKeyActivityType] = activityType

			txn, err := s.Ledger.creditTx(tx, profileID, rule.PointsRewarded, models.TransactionTypeEarn, rule.Description, metadata)
			if errors.Is(err, ErrReserveExhausted) {
				// Reward denied, no partial record written.
				*result = TrackResult{Reason: ReasonReserveExhausted}
				return nil
			}
			if err != nil {
				return err
			}

			record := models.UserActivityRecord{
				ID:           uuid.NewString(),
				AccountID:    acct.ID,
				ActivityType: activityType,
				Timestamp:    now,
				PointsEarned: rule.PointsRewarded,
				Metadata:     metadata,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}

			*result = TrackResult{
				Awarded:      true,
				PointsEarned: rule.PointsRewarded,
				Reason:       ReasonAwarded,
				Transaction:  txn,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Awarded && result.Transaction != nil {
		s.Ledger.afterCredit(result.Transaction)
	}
	return result, nil
}

// GetRule fetches a single rule by activity type.
func (s *ActivityService) GetRule(activityType string) (*models.ActivityRewardRule, error) {
	var rule models.ActivityRewardRule
	if err := s.DB.Where("activity_type = ?", activityType).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reward rule %s", ErrNotFound, activityType)
		}
		return nil, err
	}
	return &rule, nil
}

// ListRules returns the whole rule table.
func (s *ActivityService) ListRules() ([]models.ActivityRewardRule, error) {
	var rules []models.ActivityRewardRule
	err := s.DB.Order("activity_type ASC").Find(&rules).Error
	return rules, err
}

// SetRuleEnabled toggles a rule without touching its other fields.
func (s *ActivityService) SetRuleEnabled(activityType string, enabled bool) error {
	res := s.DB.Model(&models.ActivityRewardRule{}).
		Where("activity_type = ?", activityType).
		Update("is_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: reward rule %s", ErrNotFound, activityType)
	}
	return nil
}

// SeedRules inserts the default rule rows, leaving already-administered rules
// untouched.
func (s *ActivityService) SeedRules() error {
	for _, rule := range models.DefaultRewardRules {
		var count int64
		if err := s.DB.Model(&models.ActivityRewardRule{}).
			Where("activity_type = ?", rule.ActivityType).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		rule.ID = uuid.NewString()
		if err := s.DB.Create(&rule).Error; err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", rule.ActivityType, err)
		}
	}
	return nil
}
