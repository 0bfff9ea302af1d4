package server

import (
	"errors"
	"log/slog"

	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error as {"error": message}. Errors that are
// not meant for users are logged and reported generically.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		switch {
		case errors.As(err, &e):
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		case errors.Is(err, workspace.ErrPersist):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Could not save your changes. Please try again.",
			})
		case errors.Is(err, workspace.ErrLoad):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Could not load your data. Please try again.",
			})
		}

		log.Error("unexpected error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "An unexpected error occurred",
		})
	}
}
