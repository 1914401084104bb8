package services

import (
	"testing"
	"time"

	"mypts-economy-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackPlatformJoinAwardsOnce(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	res, err := env.activity.TrackActivity("profile-1", models.ActivityPlatformJoin, nil)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
	assert.Equal(t, ReasonAwarded, res.Reason)
	assert.Equal(t, int64(100), res.PointsEarned)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, models.ActivityPlatformJoin, res.Transaction.Metadata[models.MetaKeyActivityType])

	acct := env.account(t, "profile-1")
	assert.Equal(t, int64(100), acct.Balance)

	hub := env.hubState(t)
	assert.Equal(t, int64(999_900), hub.ReserveSupply)
	assert.Equal(t, int64(100), hub.CirculatingSupply)

	// Same day, same activity: denied by the daily cap, not an error.
	env.advance(5 * time.Minute)
	res, err = env.activity.TrackActivity("profile-1", models.ActivityPlatformJoin, nil)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, ReasonDailyLimit, res.Reason)
	assert.Equal(t, int64(0), res.PointsEarned)

	acct = env.account(t, "profile-1")
	assert.Equal(t, int64(100), acct.Balance)
}

func TestTrackCooldownBlocksRepeat(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	// connection_made: 5 pts, 60s cooldown, 20/day
	res, err := env.activity.TrackActivity("profile-1", models.ActivityConnectionMade, nil)
	require.NoError(t, err)
	assert.True(t, res.Awarded)

	env.advance(30 * time.Second)
	res, err = env.activity.TrackActivity("profile-1", models.ActivityConnectionMade, nil)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, ReasonCooldown, res.Reason)

	// Once the cooldown elapses, the next event is rewarded again.
	env.advance(31 * time.Second)
	res, err = env.activity.TrackActivity("profile-1", models.ActivityConnectionMade, nil)
	require.NoError(t, err)
	assert.True(t, res.Awarded)

	acct := env.account(t, "profile-1")
	assert.Equal(t, int64(10), acct.Balance)
}

func TestTrackDailyCapResetsNextDay(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	res, err := env.activity.TrackActivity("profile-1", models.ActivityProfileCompleted, nil)
	require.NoError(t, err)
	assert.True(t, res.Awarded)

	res, err = env.activity.TrackActivity("profile-1", models.ActivityProfileCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonDailyLimit, res.Reason)

	env.advance(24 * time.Hour)
	res, err = env.activity.TrackActivity("profile-1", models.ActivityProfileCompleted, nil)
	require.NoError(t, err)
	assert.True(t, res.Awarded)
}

func TestTrackUnknownActivity(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	res, err := env.activity.TrackActivity("profile-1", "no_such_activity", nil)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, ReasonDisabled, res.Reason)
}

func TestTrackDisabledRule(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	require.NoError(t, env.activity.SetRuleEnabled(models.ActivityDailyLogin, false))

	res, err := env.activity.TrackActivity("profile-1", models.ActivityDailyLogin, nil)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, ReasonDisabled, res.Reason)

	// No account-side effects at all for a denied event.
	_, err = env.ledger.GetAccount("profile-1")
	if err == nil {
		acct := env.account(t, "profile-1")
		assert.Equal(t, int64(0), acct.Balance)
	}
}

func TestTrackReserveExhaustedIsOutcomeNotError(t *testing.T) {
	env := newTestEnv(t, 50) // below the platform_join reward of 100

	res, err := env.activity.TrackActivity("profile-1", models.ActivityPlatformJoin, nil)
	require.NoError(t, err)
	assert.False(t, res.Awarded)
	assert.Equal(t, ReasonReserveExhausted, res.Reason)

	hub := env.hubState(t)
	assert.Equal(t, int64(50), hub.ReserveSupply)

	// No activity record either: a later retry must still be eligible.
	var records int64
	require.NoError(t, env.db.Model(&models.UserActivityRecord{}).Count(&records).Error)
	assert.Equal(t, int64(0), records)
}

func TestTrackValidatesInput(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	_, err := env.activity.TrackActivity("", models.ActivityPlatformJoin, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.activity.TrackActivity("profile-1", "", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestTrackWritesActivityRecord(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	_, err := env.activity.TrackActivity("profile-1", models.ActivityReferralCompleted, map[string]interface{}{"referred": "profile-2"})
	require.NoError(t, err)

	acct := env.account(t, "profile-1")
	var record models.UserActivityRecord
	require.NoError(t, env.db.Where("account_id = ?", acct.ID).First(&record).Error)
	assert.Equal(t, models.ActivityReferralCompleted, record.ActivityType)
	assert.Equal(t, int64(250), record.PointsEarned)
	assert.WithinDuration(t, env.now, record.Timestamp, time.Second)
	assert.Equal(t, "profile-2", record.Metadata["referred"])
}

func TestSetRuleEnabledUnknownRule(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	err := env.activity.SetRuleEnabled("no_such_activity", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeedRulesIdempotent(t *testing.T) {
	env := newTestEnv(t, 1_000_000)

	// newTestEnv already seeded once; a second pass must not duplicate rows.
	require.NoError(t, env.activity.SeedRules())

	rules, err := env.activity.ListRules()
	require.NoError(t, err)
	assert.Len(t, rules, len(models.DefaultRewardRules))
}
