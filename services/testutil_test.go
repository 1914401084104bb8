package services

import (
	"testing"
	"time"

	"mypts-economy-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service graph over an in-memory SQLite database with
// an injected clock, so cooldown and daily-cap windows are deterministic.
type testEnv struct {
	db          *gorm.DB
	hub         *HubService
	ledger      *LedgerService
	activity    *ActivityService
	milestones  *MilestoneService
	badges      *BadgeService
	leaderboard *LeaderboardService
	recon       *ReconciliationService

	now time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh pooled connection to :memory: would see an empty database —
	// pin everything to one connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.Hub{},
		&models.ActivityRewardRule{},
		&models.UserActivityRecord{},
		&models.Badge{},
		&models.ProfileBadgeProgress{},
		&models.ProfileMilestone{},
		&models.LeaderboardEntry{},
		&models.ProfileMirror{},
	))
	return db
}

func newTestEnv(t *testing.T, totalSupply int64) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:  db,
		now: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}

	env.hub = NewHubService(db)
	env.ledger = NewLedgerService(db)
	env.ledger.Now = env.clock
	env.activity = NewActivityService(db, env.ledger)
	env.activity.Now = env.clock
	env.milestones = NewMilestoneService(db, nil)
	env.milestones.Now = env.clock
	env.badges = NewBadgeService(db, nil)
	env.badges.Now = env.clock
	env.leaderboard = NewLeaderboardService(db)
	env.recon = NewReconciliationService(db, env.activity, env.hub)
	env.recon.Now = env.clock

	env.ledger.Milestones = env.milestones
	env.ledger.Badges = env.badges
	env.ledger.Leaderboard = env.leaderboard

	_, err := env.hub.EnsureHub(totalSupply)
	require.NoError(t, err)
	require.NoError(t, env.activity.SeedRules())
	require.NoError(t, env.badges.SeedCatalog())

	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func (e *testEnv) account(t *testing.T, profileID string) *models.Account {
	t.Helper()
	acct, err := e.ledger.GetAccount(profileID)
	require.NoError(t, err)
	return acct
}

func (e *testEnv) hubState(t *testing.T) *models.Hub {
	t.Helper()
	hub, err := e.hub.GetHub()
	require.NoError(t, err)
	return hub
}

func strPtr(s string) *string { return &s }
