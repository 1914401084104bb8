package services

import (
	"fmt"
	"testing"

	"mypts-economy-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedMirror(t *testing.T, profileID string, identityID *string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.ProfileMirror{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		IdentityID: identityID,
		Username:   profileID,
		Status:     "active",
	}).Error)
}

func TestReconciliationAwardsMissedRewards(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	for i := 1; i <= 3; i++ {
		env.seedMirror(t, fmt.Sprintf("profile-%d", i), strPtr(fmt.Sprintf("identity-%d", i)))
	}

	report, err := env.recon.Run(models.ActivityPlatformJoin)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ProfilesScanned)
	assert.Equal(t, 0, report.OrphanedSkipped)
	assert.Equal(t, 3, report.Eligible)
	assert.Equal(t, 3, report.Awarded)
	assert.Equal(t, int64(300), report.PointsIssued)

	for i := 1; i <= 3; i++ {
		acct := env.account(t, fmt.Sprintf("profile-%d", i))
		assert.Equal(t, int64(100), acct.Balance)
	}

	hub := env.hubState(t)
	assert.Equal(t, int64(999_700), hub.ReserveSupply)
	assert.Equal(t, int64(300), hub.CirculatingSupply)
}

func TestReconciliationIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	env.seedMirror(t, "profile-1", strPtr("identity-1"))
	env.seedMirror(t, "profile-2", strPtr("identity-2"))

	first, err := env.recon.Run(models.ActivityPlatformJoin)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Awarded)

	hubAfterFirst := env.hubState(t)

	second, err := env.recon.Run(models.ActivityPlatformJoin)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Eligible)
	assert.Equal(t, 0, second.Awarded)
	assert.Equal(t, int64(0), second.PointsIssued)

	hubAfterSecond := env.hubState(t)
	assert.Equal(t, hubAfterFirst.ReserveSupply, hubAfterSecond.ReserveSupply)
	assert.Equal(t, hubAfterFirst.CirculatingSupply, hubAfterSecond.CirculatingSupply)
}

func TestReconciliationSkipsOrphans(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	env.seedMirror(t, "profile-1", strPtr("identity-1"))
	env.seedMirror(t, "orphan-1", nil)
	env.seedMirror(t, "orphan-2", strPtr(""))

	report, err := env.recon.Run(models.ActivityPlatformJoin)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ProfilesScanned)
	assert.Equal(t, 2, report.OrphanedSkipped)
	assert.Equal(t, 1, report.Awarded)

	// Orphans received no account at all.
	_, err = env.ledger.GetAccount("orphan-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconciliationSkipsAlreadyRewardedAccounts(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	env.seedMirror(t, "profile-1", strPtr("identity-1"))
	env.seedMirror(t, "profile-2", strPtr("identity-2"))

	// profile-1 already earned the reward through the live path.
	res, err := env.activity.TrackActivity("profile-1", models.ActivityPlatformJoin, nil)
	require.NoError(t, err)
	require.True(t, res.Awarded)

	report, err := env.recon.Run(models.ActivityPlatformJoin)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Eligible)
	assert.Equal(t, 1, report.Awarded)

	acct := env.account(t, "profile-1")
	assert.Equal(t, int64(100), acct.Balance) // not doubled
}

func TestReconciliationAbortsWhenReserveCannotCoverBatch(t *testing.T) {
	env := newTestEnv(t, 250) // 3 eligible × 100 pts > 250 reserve

	for i := 1; i <= 3; i++ {
		env.seedMirror(t, fmt.Sprintf("profile-%d", i), strPtr(fmt.Sprintf("identity-%d", i)))
	}

	_, err := env.recon.Run(models.ActivityPlatformJoin)
	require.ErrorIs(t, err, ErrReserveExhausted)

	// All-or-nothing: no partial awards.
	hub := env.hubState(t)
	assert.Equal(t, int64(250), hub.ReserveSupply)
	assert.Equal(t, int64(0), hub.CirculatingSupply)

	var txnCount int64
	require.NoError(t, env.db.Model(&models.Transaction{}).Count(&txnCount).Error)
	assert.Equal(t, int64(0), txnCount)
}

func TestReconciliationRejectsDisabledRule(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	require.NoError(t, env.activity.SetRuleEnabled(models.ActivityPlatformJoin, false))

	_, err := env.recon.Run(models.ActivityPlatformJoin)
	require.ErrorIs(t, err, ErrValidation)
}

func TestReconciliationUnknownRule(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	_, err := env.recon.Run("no_such_activity")
	require.ErrorIs(t, err, ErrNotFound)
}
