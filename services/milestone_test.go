package services

import (
	"testing"

	"mypts-economy-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		points int64
		level  string
		next   string // "" at max level
	}{
		{0, "Starter", "Explorer"},
		{9_999, "Starter", "Explorer"},
		{10_000, "Explorer", "Achiever"},
		{499_999, "Explorer", "Achiever"},
		{500_000, "Achiever", "Leader"},
		{999_999, "Achiever", "Leader"},
		{1_000_000, "Leader", "Champion"},
		{1_000_001, "Leader", "Champion"},
		{5_000_000, "Champion", "Legend"},
		{9_999_999, "Champion", "Legend"},
		{10_000_000, "Legend", ""},
		{25_000_000, "Legend", ""},
	}
	for _, tc := range cases {
		current, next := LevelForPoints(tc.points)
		assert.Equal(t, tc.level, current.Name, "points=%d", tc.points)
		if tc.next == "" {
			assert.Nil(t, next, "points=%d", tc.points)
		} else {
			require.NotNil(t, next, "points=%d", tc.points)
			assert.Equal(t, tc.next, next.Name, "points=%d", tc.points)
		}
	}
}

func TestMilestoneProgress(t *testing.T) {
	explorer := MilestoneLevels[1]
	achiever := MilestoneLevels[2]

	assert.Equal(t, 0, milestoneProgress(10_000, explorer, &achiever))
	assert.Equal(t, 50, milestoneProgress(255_000, explorer, &achiever))
	// Just under the next threshold still reads 99, never 100.
	assert.Equal(t, 99, milestoneProgress(499_999, explorer, &achiever))
	// Max level pegs at 100.
	assert.Equal(t, 100, milestoneProgress(10_000_000, MilestoneLevels[5], nil))
}

func TestRefreshForAccountLevelsUp(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	// afterCredit refreshes the milestone automatically on credit.
	_, err := env.ledger.Credit("profile-1", 10_000, models.TransactionTypeEarn, "bulk grant", nil)
	require.NoError(t, err)

	ms, err := env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	assert.Equal(t, "Explorer", ms.CurrentLevel)
	assert.Equal(t, int64(10_000), ms.CurrentPoints)
	require.NotNil(t, ms.NextLevel)
	assert.Equal(t, "Achiever", *ms.NextLevel)
	require.NotNil(t, ms.NextLevelThreshold)
	assert.Equal(t, int64(500_000), *ms.NextLevelThreshold)

	// History carries exactly one entry per level actually reached.
	require.Len(t, ms.MilestoneHistory, 1)
	assert.Equal(t, "Explorer", ms.MilestoneHistory[0].Level)
}

func TestRefreshForAccountHistoryAppendsOncePerLevel(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	acct, err := env.ledger.EnsureAccount("profile-1")
	require.NoError(t, err)

	_, err = env.ledger.Credit("profile-1", 10_000, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)

	// Refreshing again without new earnings must not duplicate the entry.
	require.NoError(t, env.milestones.RefreshForAccount(acct.ID))
	require.NoError(t, env.milestones.RefreshForAccount(acct.ID))

	ms, err := env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	require.Len(t, ms.MilestoneHistory, 1)
}

func TestReversalNeverRecordsDemotion(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	txn, err := env.ledger.Credit("profile-1", 10_000, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)
	_, err = env.ledger.Reverse(txn.ID)
	require.NoError(t, err)

	acct := env.account(t, "profile-1")
	require.NoError(t, env.milestones.RefreshForAccount(acct.ID))

	// The computed level drops back, but the history keeps only the climb and
	// no level-up notification fires for the demotion.
	ms, err := env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	assert.Equal(t, "Starter", ms.CurrentLevel)
	require.Len(t, ms.MilestoneHistory, 1)
	assert.Equal(t, "Explorer", ms.MilestoneHistory[0].Level)

	// Climbing back to an already-recorded level adds no second entry.
	_, err = env.ledger.Credit("profile-1", 10_000, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)

	ms, err = env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	assert.Equal(t, "Explorer", ms.CurrentLevel)
	require.Len(t, ms.MilestoneHistory, 1)

	// A genuinely new high still appends, keeping history strictly increasing.
	_, err = env.ledger.Credit("profile-1", 500_000, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)

	ms, err = env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	require.Len(t, ms.MilestoneHistory, 2)
	assert.Equal(t, "Achiever", ms.MilestoneHistory[1].Level)
	for i := 1; i < len(ms.MilestoneHistory); i++ {
		assert.Greater(t,
			MilestoneIndex(ms.MilestoneHistory[i].Level),
			MilestoneIndex(ms.MilestoneHistory[i-1].Level))
	}
}

func TestSpendingNeverDemotesLevel(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	_, err := env.ledger.Credit("profile-1", 10_000, models.TransactionTypeEarn, "grant", nil)
	require.NoError(t, err)
	_, err = env.ledger.Debit("profile-1", 9_500, "big spend", nil)
	require.NoError(t, err)

	acct := env.account(t, "profile-1")
	require.NoError(t, env.milestones.RefreshForAccount(acct.ID))

	ms, err := env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	assert.Equal(t, "Explorer", ms.CurrentLevel)
	assert.Equal(t, int64(10_000), ms.CurrentPoints)
}

func TestGetProfileMilestoneLazyCreatesStarter(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	_, err := env.ledger.EnsureAccount("profile-1")
	require.NoError(t, err)

	ms, err := env.milestones.GetProfileMilestone("profile-1")
	require.NoError(t, err)
	assert.Equal(t, "Starter", ms.CurrentLevel)
	assert.Equal(t, 0, ms.Progress)
	assert.Empty(t, ms.MilestoneHistory)
}

func TestGetProfileMilestoneUnknownProfile(t *testing.T) {
	env := newTestEnv(t, 100_000_000)

	_, err := env.milestones.GetProfileMilestone("nobody")
	require.ErrorIs(t, err, ErrNotFound)
}
