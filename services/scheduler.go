// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRebuildScheduler rebuilds the leaderboard on a fixed interval
// (LEADERBOARD_REBUILD_MINUTES, default 15). Rebuilds run concurrently with
// credits and never block reward issuance.
func (s *LeaderboardService) StartRebuildScheduler() {
	interval := 15
	if v := os.Getenv("LEADERBOARD_REBUILD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(time.Duration(interval)*time.Minute),
		gocron.NewTask(func() {
			if err := s.Rebuild(); err != nil {
				log.Printf("[Scheduler] Leaderboard rebuild failed: %v", err)
			}
		}),
	)

	log.Printf("✅ Leaderboard rebuild scheduled every %d minute(s)", interval)
}
