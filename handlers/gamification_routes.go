// handlers/gamification_routes.go
package handlers

import (
	"strconv"

	"mypts-economy-system/middleware"
	"mypts-economy-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupGamificationRoutes(
	app *fiber.App,
	ledger *services.LedgerService,
	milestones *services.MilestoneService,
	badges *services.BadgeService,
	leaderboard *services.LeaderboardService,
	reconciliation *services.ReconciliationService,
) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/milestone", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		// Profiles that never earned points still get a Starter milestone
		if _, err := ledger.EnsureAccount(userID); err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to ensure account",
				"cause": err.Error(),
			})
		}

		ms, err := milestones.GetProfileMilestone(userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch milestone",
				"cause": err.Error(),
			})
		}
		return c.JSON(ms)
	})

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		acct, err := ledger.EnsureAccount(userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to ensure account",
				"cause": err.Error(),
			})
		}

		list, err := badges.GetProfileBadges(acct.ID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(list)
	})

	securedGroup.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		level := c.Query("milestone")

		var entries interface{}
		var err error
		if level != "" {
			entries, err = leaderboard.GetEntriesByMilestone(level, limit)
		} else {
			entries, err = leaderboard.GetTopEntries(limit)
		}
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	securedGroup.Get("/leaderboard/rank", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		entry, err := leaderboard.GetProfileRank(userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch rank",
				"cause": err.Error(),
			})
		}
		return c.JSON(entry)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/badges/:id/award", func(c *fiber.Ctx) error {
		badgeID := c.Params("id")
		if _, err := uuid.Parse(badgeID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid badge ID"})
		}

		var req struct {
			ProfileID string `json:"profile_id" validate:"required,uuid"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		acct, err := ledger.GetAccount(req.ProfileID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "account lookup failed",
				"cause": err.Error(),
			})
		}

		row, err := badges.AwardBadge(acct.ID, badgeID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "badge award failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(row)
	})

	adminGroup.Post("/leaderboard/rebuild", func(c *fiber.Ctx) error {
		if err := leaderboard.Rebuild(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "leaderboard rebuild failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "leaderboard rebuilt"})
	})

	adminGroup.Post("/reconciliation/run", func(c *fiber.Ctx) error {
		var req struct {
			ActivityType string `json:"activity_type" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.ActivityType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "activity_type is required"})
		}

		report, err := reconciliation.Run(req.ActivityType)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "reconciliation failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(report)
	})
}
