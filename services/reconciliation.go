// services/reconciliation.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"mypts-economy-system/models"
	"mypts-economy-system/utils"

	"gorm.io/gorm"
)

// ReconciliationReport summarizes one batch run.
type ReconciliationReport struct {
	ActivityType    string    `json:"activity_type"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	ProfilesScanned int       `json:"profiles_scanned"`
	OrphanedSkipped int       `json:"orphaned_skipped"`
	Eligible        int       `json:"eligible"`
	Awarded         int       `json:"awarded"`
	NotAwarded      int       `json:"not_awarded"`
	PointsIssued    int64     `json:"points_issued"`
	ReportURL       string    `json:"report_url,omitempty"`
}

// ReconciliationService retroactively awards rewards that existing profiles
// never received, reusing the live TrackActivity path so cooldown, cap and
// reserve semantics stay identical.
type ReconciliationService struct {
	DB       *gorm.DB
	Activity *ActivityService
	Hub      *HubService
	Now      func() time.Time
}

func NewReconciliationService(db *gorm.DB, activity *ActivityService, hub *HubService) *ReconciliationService {
	return &ReconciliationService{DB: db, Activity: activity, Hub: hub, Now: time.Now}
}

// Run scans the profile mirror for profiles that never earned the target
// activity's reward and issues catch-up credits one account at a time. The
// batch aborts before awarding anything if the hub reserve cannot cover every
// eligible profile — no partial, unexplained state.
//
// Idempotent and restartable: a rewarded account no longer matches the
// zero-balance predicate, so a rerun only processes the remainder.
func (s *ReconciliationService) Run(activityType string) (*ReconciliationReport, error) {
	rule, err := s.Activity.GetRule(activityType)
	if err != nil {
		return nil, err
	}
	if !rule.IsEnabled {
		return nil, fmt.Errorf("%w: rule %s is disabled, nothing to reconcile", ErrValidation, activityType)
	}

	report := &ReconciliationReport{
		ActivityType: activityType,
		StartedAt:    s.Now(),
	}

	var profiles []models.ProfileMirror
	if err := s.DB.Find(&profiles).Error; err != nil {
		return nil, err
	}
	report.ProfilesScanned = len(profiles)

	// Partition: profiles without an owning identity are orphans — skipped,
	// logged, never rewarded.
	var valid []models.ProfileMirror
	for _, p := range profiles {
		if p.IdentityID == nil || *p.IdentityID == "" {
			report.OrphanedSkipped++
			log.Printf("[RECON] ⚠️ Skipping orphaned profile %s (no owning identity)", p.ProfileID)
			continue
		}
		valid = append(valid, p)
	}

	// Eligible = valid profiles whose account was never rewarded: either no
	// account yet, or zero balance and zero lifetime earnings.
	var eligible []models.ProfileMirror
	for _, p := range valid {
		var acct models.Account
		err := s.DB.Where("profile_id = ?", p.ProfileID).First(&acct).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			eligible = append(eligible, p)
			continue
		}
		if err != nil {
			return nil, err
		}
		if acct.Balance == 0 && acct.LifetimeEarned == 0 {
			eligible = append(eligible, p)
		}
	}
	report.Eligible = len(eligible)

	if len(eligible) == 0 {
		report.FinishedAt = s.Now()
		log.Printf("[RECON] ✅ Nothing to reconcile for %s (%d profiles scanned, %d orphans)",
			activityType, report.ProfilesScanned, report.OrphanedSkipped)
		return report, nil
	}

	// Reserve sufficiency is checked for the whole batch up front. If the hub
	// cannot cover every eligible profile the batch aborts with a diagnostic
	// and awards nothing.
	required := int64(len(eligible)) * rule.PointsRewarded
	hub, err := s.Hub.GetHub()
	if err != nil {
		return nil, err
	}
	if hub.ReserveSupply < required {
		return nil, fmt.Errorf("%w: reconciliation of %s needs %s MyPts for %d profiles, reserve holds %s",
			ErrReserveExhausted, activityType,
			supplyPrinter.Sprintf("%d", required), len(eligible),
			supplyPrinter.Sprintf("%d", hub.ReserveSupply))
	}

	// Award through the live tracking path — one lock scope per account, never
	// a batch-wide lock.
	for _, p := range eligible {
		result, err := s.Activity.TrackActivity(p.ProfileID, activityType, map[string]interface{}{
			models.MetaKeySource: "reconciliation",
		})
		if err != nil {
			log.Printf("[RECON] ❌ Award failed for profile %s: %v", p.ProfileID, err)
			report.NotAwarded++
			continue
		}
		if result.Awarded {
			report.Awarded++
			report.PointsIssued += result.PointsEarned
		} else {
			report.NotAwarded++
			log.Printf("[RECON] ➡️ Profile %s not awarded: %s", p.ProfileID, result.Reason)
		}
	}

	report.FinishedAt = s.Now()
	log.Printf("[RECON] ✅ Reconciled %s: %d awarded, %d skipped, %s MyPts issued (%v elapsed)",
		activityType, report.Awarded, report.NotAwarded,
		supplyPrinter.Sprintf("%d", report.PointsIssued),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	s.uploadReport(report)
	return report, nil
}

// uploadReport archives the run summary to object storage when configured.
// Upload failures are logged only — the reconciliation itself already
// succeeded.
func (s *ReconciliationService) uploadReport(report *ReconciliationReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("[RECON] ⚠️ Failed to marshal report: %v", err)
		return
	}

	key := fmt.Sprintf("reconciliation/%s-%s.json", report.ActivityType, report.StartedAt.UTC().Format("20060102T150405Z"))
	url, err := utils.UploadReconciliationReport(key, data)
	if err != nil {
		log.Printf("[RECON] ⚠️ Report upload failed: %v", err)
		return
	}
	if url != "" {
		report.ReportURL = url
		log.Printf("[RECON] 📄 Report archived: %s", url)
	}
}
