// services/ledger.go
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

// LedgerService owns account balances and the append-only transaction log.
// Every reward credit first moves points out of the hub reserve; hub and
// account always change together in one DB transaction or not at all.
type LedgerService struct {
	DB  *gorm.DB
	Now func() time.Time // injectable clock for deterministic tests

	// Gamification hooks, wired in main. Nil-safe so the ledger stays usable
	// standalone (e.g. in tests that only care about balances).
	Milestones  *MilestoneService
	Badges      *BadgeService
	Leaderboard *LeaderboardService
	Notifier    *Notifier
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, Now: time.Now}
}

// EnsureAccount returns the account for a profile, creating it at zero balance
// if missing (idempotent).
func (s *LedgerService) EnsureAccount(profileID string) (*models.Account, error) {
	var acct *models.Account
	err := withConflictRetry(func() error {
		var innerErr error
		acct, innerErr = ensureAccountTx(s.DB, profileID)
		return innerErr
	})
	return acct, err
}

// GetAccount fetches the account for a profile.
func (s *LedgerService) GetAccount(profileID string) (*models.Account, error) {
	var acct models.Account
	if err := s.DB.Where("profile_id = ?", profileID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account for profile %s", ErrNotFound, profileID)
		}
		return nil, err
	}
	return &acct, nil
}

// GetTransactions returns the newest transactions for a profile's account.
func (s *LedgerService) GetTransactions(profileID string, limit int) ([]models.Transaction, error) {
	acct, err := s.GetAccount(profileID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var txns []models.Transaction
	err = s.DB.Where("account_id = ?", acct.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// Credit awards points to a profile's account, drawing them from the hub
// reserve. Fails with ErrReserveExhausted when the reserve cannot cover the
// amount — nothing is written in that case.
func (s *LedgerService) Credit(profileID string, amount int64, txType models.TransactionType, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	var txn *models.Transaction
	err := withConflictRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			var innerErr error
			txn, innerErr = s.creditTx(tx, profileID, amount, txType, description, metadata)
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	s.afterCredit(txn)
	return txn, nil
}

// creditTx applies a credit inside an existing DB transaction. Callers that
// bundle the credit with other checks (the activity engine) use this directly
// so the whole unit serializes as one.
func (s *LedgerService) creditTx(tx *gorm.DB, profileID string, amount int64, txType models.TransactionType, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be a positive integer", ErrValidation)
	}

	acct, err := ensureAccountTx(tx, profileID)
	if err != nil {
		return nil, err
	}

	// Reserve first: if the hub cannot cover the reward, nothing is written.
	if err := moveToCirculation(tx, amount); err != nil {
		return nil, err
	}

	now := s.Now()
	newBalance := acct.Balance + amount
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", acct.ID, acct.Version).
		Updates(map[string]interface{}{
			"balance":             newBalance,
			"lifetime_earned":     acct.LifetimeEarned + amount,
			"last_transaction_at": now,
			"version":             acct.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrencyConflict
	}

	txn := &models.Transaction{
		ID:               uuid.NewString(),
		AccountID:        acct.ID,
		Type:             txType,
		Amount:           amount,
		ResultingBalance: newBalance,
		Description:      description,
		Status:           models.TransactionStatusCompleted,
		Metadata:         metadata,
		CreatedAt:        now,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// Debit spends points from a profile's account. The points flow back to the
// hub reserve so total supply is conserved in both directions.
func (s *LedgerService) Debit(profileID string, amount int64, description string, metadata map[string]interface{}) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be a positive integer", ErrValidation)
	}

	var txn *models.Transaction
	err := withConflictRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			acct, err := getAccountTx(tx, profileID)
			if err != nil {
				return err
			}
			if amount > acct.Balance {
				return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientBalance, acct.Balance, amount)
			}

			if err := moveToReserve(tx, amount); err != nil {
				return err
			}

			now := s.Now()
			newBalance := acct.Balance - amount
			res := tx.Model(&models.Account{}).
				Where("id = ? AND version = ?", acct.ID, acct.Version).
				Updates(map[string]interface{}{
					"balance":             newBalance,
					"lifetime_spent":      acct.LifetimeSpent + amount,
					"last_transaction_at": now,
					"version":             acct.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConcurrencyConflict
			}

			txn = &models.Transaction{
				ID:               uuid.NewString(),
				AccountID:        acct.ID,
				Type:             models.TransactionTypeSpend,
				Amount:           -amount,
				ResultingBalance: newBalance,
				Description:      description,
				Status:           models.TransactionStatusCompleted,
				Metadata:         metadata,
				CreatedAt:        now,
			}
			return tx.Create(txn).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Reverse supersedes a completed transaction with a new adjustment entry of
// the opposite sign and flips the original to status=reversed. The original
// row itself is never edited beyond that status change.
func (s *LedgerService) Reverse(transactionID string) (*models.Transaction, error) {
	var reversal *models.Transaction
	err := withConflictRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			var orig models.Transaction
			if err := tx.First(&orig, "id = ?", transactionID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
				}
				return err
			}
			if orig.Status != models.TransactionStatusCompleted {
				return fmt.Errorf("%w: only completed transactions can be reversed (status=%s)", ErrValidation, orig.Status)
			}

			var acct models.Account
			if err := tx.First(&acct, "id = ?", orig.AccountID).Error; err != nil {
				return err
			}

			now := s.Now()
			updates := map[string]interface{}{
				"last_transaction_at": now,
				"version":             acct.Version + 1,
			}
			var newBalance int64
			if orig.Amount > 0 {
				// Undo an earn: points leave circulation back into the reserve.
				if orig.Amount > acct.Balance {
					return fmt.Errorf("%w: cannot reverse earn of %d, balance is %d", ErrInsufficientBalance, orig.Amount, acct.Balance)
				}
				if err := moveToReserve(tx, orig.Amount); err != nil {
					return err
				}
				newBalance = acct.Balance - orig.Amount
				updates["balance"] = newBalance
				updates["lifetime_earned"] = acct.LifetimeEarned - orig.Amount
			} else {
				// Undo a spend: points re-enter circulation from the reserve.
				refund := -orig.Amount
				if err := moveToCirculation(tx, refund); err != nil {
					return err
				}
				newBalance = acct.Balance + refund
				updates["balance"] = newBalance
				updates["lifetime_spent"] = acct.LifetimeSpent - refund
			}

			res := tx.Model(&models.Account{}).
				Where("id = ? AND version = ?", acct.ID, acct.Version).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConcurrencyConflict
			}

			if err := tx.Model(&models.Transaction{}).
				Where("id = ?", orig.ID).
				Update("status", models.TransactionStatusReversed).Error; err != nil {
				return err
			}

			reversal = &models.Transaction{
				ID:               uuid.NewString(),
				AccountID:        orig.AccountID,
				Type:             models.TransactionTypeAdjustment,
				Amount:           -orig.Amount,
				ResultingBalance: newBalance,
				Description:      fmt.Sprintf("Reversal of: %s", orig.Description),
				Status:           models.TransactionStatusCompleted,
				Metadata: map[string]interface{}{
					models.MetaKeyReversalOf: orig.ID,
				},
				CreatedAt: now,
			}
			return tx.Create(reversal).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// afterCredit runs the gamification follow-ups for a completed credit.
// Failures here never roll back the economic transaction — they are logged
// and left for the next recompute.
func (s *LedgerService) afterCredit(txn *models.Transaction) {
	if s.Milestones != nil {
		if err := s.Milestones.RefreshForAccount(txn.AccountID); err != nil {
			log.Printf("⚠️ Milestone refresh failed for account %s: %v", txn.AccountID, err)
		}
	}
	if s.Badges != nil {
		if err := s.Badges.EvaluateAutoBadges(txn.AccountID); err != nil {
			log.Printf("⚠️ Badge evaluation failed for account %s: %v", txn.AccountID, err)
		}
	}
	if s.Leaderboard != nil {
		if err := s.Leaderboard.RefreshEntry(txn.AccountID); err != nil {
			log.Printf("⚠️ Leaderboard entry refresh failed for account %s: %v", txn.AccountID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.RewardIssued(txn.AccountID, txn.Amount, txn.Description)
	}
}

func ensureAccountTx(tx *gorm.DB, profileID string) (*models.Account, error) {
	if profileID == "" {
		return nil, fmt.Errorf("%w: profile id required", ErrValidation)
	}
	var acct models.Account
	err := tx.Where("profile_id = ?", profileID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = models.Account{ID: uuid.NewString(), ProfileID: profileID}
		if createErr := tx.Create(&acct).Error; createErr != nil {
			// A concurrent request may have created the row between the read
			// and the insert. Return the winner if visible; otherwise surface
			// a conflict so the retry loop reruns the whole unit.
			var existing models.Account
			if err := tx.Where("profile_id = ?", profileID).First(&existing).Error; err == nil {
				return &existing, nil
			}
			return nil, fmt.Errorf("%w: account create raced for profile %s: %v", ErrConcurrencyConflict, profileID, createErr)
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func getAccountTx(tx *gorm.DB, profileID string) (*models.Account, error) {
	var acct models.Account
	if err := tx.Where("profile_id = ?", profileID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account for profile %s", ErrNotFound, profileID)
		}
		return nil, err
	}
	return &acct, nil
}
