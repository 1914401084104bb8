package services

import (
	"testing"

	"mypts-economy-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) badgeByCode(t *testing.T, code string) *models.Badge {
	t.Helper()
	var badge models.Badge
	require.NoError(t, e.db.First(&badge, "code = ?", code).Error)
	return &badge
}

func TestAwardBadgeIdempotent(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	acct, err := env.ledger.EnsureAccount("profile-1")
	require.NoError(t, err)
	badge := env.badgeByCode(t, "early-adopter")

	first, err := env.badges.AwardBadge(acct.ID, badge.ID)
	require.NoError(t, err)
	assert.True(t, first.IsCompleted)
	assert.Equal(t, 100, first.Progress)
	require.NotNil(t, first.CompletedAt)

	second, err := env.badges.AwardBadge(acct.ID, badge.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CompletedAt.Unix(), second.CompletedAt.Unix())

	count, err := env.badges.CompletedBadgeCount(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAwardBadgeUnknownBadge(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	acct, err := env.ledger.EnsureAccount("profile-1")
	require.NoError(t, err)

	_, err = env.badges.AwardBadge(acct.ID, "no-such-badge")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProgressClampsAndCompletes(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	acct, err := env.ledger.EnsureAccount("profile-1")
	require.NoError(t, err)
	badge := env.badgeByCode(t, "social-butterfly")

	row, err := env.badges.UpdateProgress(acct.ID, badge.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, row.Progress)
	assert.False(t, row.IsCompleted)

	row, err = env.badges.UpdateProgress(acct.ID, badge.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, row.Progress)

	row, err = env.badges.UpdateProgress(acct.ID, badge.ID, 250)
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, 100, row.Progress)

	// Completed rows never regress.
	row, err = env.badges.UpdateProgress(acct.ID, badge.ID, 10)
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, 100, row.Progress)
}

func TestAutoBadgeOnFirstActivity(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	res, err := env.activity.TrackActivity("profile-1", models.ActivityPlatformJoin, nil)
	require.NoError(t, err)
	require.True(t, res.Awarded)

	acct := env.account(t, "profile-1")
	badges, err := env.badges.GetProfileBadges(acct.ID)
	require.NoError(t, err)

	var earlyAdopter *ProfileBadge
	for i := range badges {
		if badges[i].Code == "early-adopter" {
			earlyAdopter = &badges[i]
		}
	}
	require.NotNil(t, earlyAdopter)
	assert.True(t, earlyAdopter.IsCompleted)
}

func TestLifetimePointsBadgeProgress(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	// Point Collector needs 10,000 lifetime MyPts; 2,500 is 25%.
	_, err := env.ledger.Credit("profile-1", 2_500, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)

	acct := env.account(t, "profile-1")
	badge := env.badgeByCode(t, "point-collector")

	var row models.ProfileBadgeProgress
	require.NoError(t, env.db.Where("account_id = ? AND badge_id = ?", acct.ID, badge.ID).First(&row).Error)
	assert.Equal(t, 25, row.Progress)
	assert.False(t, row.IsCompleted)

	_, err = env.ledger.Credit("profile-1", 7_500, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)

	require.NoError(t, env.db.Where("account_id = ? AND badge_id = ?", acct.ID, badge.ID).First(&row).Error)
	assert.True(t, row.IsCompleted)
}

func TestSeedCatalogIdempotent(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	require.NoError(t, env.badges.SeedCatalog())

	var count int64
	require.NoError(t, env.db.Model(&models.Badge{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.BadgeCatalog)), count)
}
