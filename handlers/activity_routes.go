// handlers/activity_routes.go
package handlers

import (
	"mypts-economy-system/middleware"
	"mypts-economy-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupActivityRoutes(app *fiber.App, activity *services.ActivityService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// Submit an activity event for the authenticated profile. Non-awarded
	// outcomes (cooldown, daily cap, disabled rule, exhausted reserve) come
	// back as 200 with awarded=false — they are normal results, not errors.
	securedGroup.Post("/activity/track", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			ActivityType string                 `json:"activity_type" validate:"required"`
			Metadata     map[string]interface{} `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.ActivityType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "activity_type is required"})
		}

		result, err := activity.TrackActivity(userID, req.ActivityType, req.Metadata)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "activity tracking failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Get("/rules", func(c *fiber.Ctx) error {
		rules, err := activity.ListRules()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list rules",
				"cause": err.Error(),
			})
		}
		return c.JSON(rules)
	})

	adminGroup.Patch("/rules/:activityType", func(c *fiber.Ctx) error {
		activityType := c.Params("activityType")

		var req struct {
			IsEnabled *bool `json:"is_enabled"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.IsEnabled == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "is_enabled is required"})
		}

		if err := activity.SetRuleEnabled(activityType, *req.IsEnabled); err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to update rule",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":       "rule updated",
			"activity_type": activityType,
			"is_enabled":    *req.IsEnabled,
		})
	})
}
