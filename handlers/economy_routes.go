// handlers/economy_routes.go
package handlers

import (
	"errors"
	"strconv"

	"mypts-economy-system/middleware"
	"mypts-economy-system/models"
	"mypts-economy-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientBalance):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrReserveExhausted):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrConcurrencyConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func SetupEconomyRoutes(app *fiber.App, ledger *services.LedgerService, hub *services.HubService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/account", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		acct, err := ledger.EnsureAccount(userID)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch account",
				"cause": err.Error(),
			})
		}
		return c.JSON(acct)
	})

	securedGroup.Get("/user/transactions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "50"))

		txns, err := ledger.GetTransactions(userID, limit)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch transactions",
				"cause": err.Error(),
			})
		}
		return c.JSON(txns)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware())

	adminGroup.Post("/mypts/credit", func(c *fiber.Ctx) error {
		var req struct {
			ProfileID   string                 `json:"profile_id" validate:"required,uuid"`
			Amount      int64                  `json:"amount" validate:"required,min=1"`
			Description string                 `json:"description" validate:"max=255"`
			Metadata    map[string]interface{} `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Metadata == nil {
			req.Metadata = map[string]interface{}{}
		}
		req.Metadata[models.MetaKeySource] = "admin"

		txn, err := ledger.Credit(req.ProfileID, req.Amount, models.TransactionTypeEarn, req.Description, req.Metadata)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "credit failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	})

	adminGroup.Post("/mypts/debit", func(c *fiber.Ctx) error {
		var req struct {
			ProfileID   string                 `json:"profile_id" validate:"required,uuid"`
			Amount      int64                  `json:"amount" validate:"required,min=1"`
			Description string                 `json:"description" validate:"max=255"`
			Metadata    map[string]interface{} `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Metadata == nil {
			req.Metadata = map[string]interface{}{}
		}
		req.Metadata[models.MetaKeySource] = "admin"

		txn, err := ledger.Debit(req.ProfileID, req.Amount, req.Description, req.Metadata)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "debit failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	})

	adminGroup.Post("/mypts/reverse/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction ID"})
		}

		txn, err := ledger.Reverse(id)
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "reversal failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(txn)
	})

	adminGroup.Get("/mypts/hub", func(c *fiber.Ctx) error {
		h, err := hub.GetHub()
		if err != nil {
			return c.Status(statusForError(err)).JSON(fiber.Map{
				"error": "failed to fetch hub",
				"cause": err.Error(),
			})
		}
		return c.JSON(h)
	})
}
