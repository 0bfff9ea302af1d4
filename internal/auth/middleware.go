package auth

import (
	"strings"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uint
	Name   string
}

func JWTMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).Select("id", "full_name", "token_version").First(&user, claims.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}
		if user.TokenVersion != claims.Version {
			return fiber.NewError(fiber.StatusUnauthorized, "Session has ended, please log in again")
		}

		c.Locals(CtxUserIDKey, user.ID)
		c.Locals(CtxUserNameKey, user.FullName)

		return c.Next()
	}
}

// CurrentUser reads the identity placed by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || id == 0 {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "User is not logged in")
	}
	name, _ := c.Locals(CtxUserNameKey).(string)
	return Identity{UserID: id, Name: name}, nil
}
