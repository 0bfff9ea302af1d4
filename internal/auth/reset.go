package auth

import (
	"log/slog"
	"strings"
	"time"

	"supplysync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

const resetIssuedMessage = "If an account exists for this email, a password reset token has been issued."

// RequestPasswordReset issues a one-hour reset token. The response never
// reveals whether the account exists; outside production the token itself
// is echoed back since there is no mail delivery.
func (h *Handler) RequestPasswordReset() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		db := h.db.WithContext(c.UserContext())
		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return c.JSON(fiber.Map{"message": resetIssuedMessage})
		}

		token := uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		expires := h.now().Add(resetTokenTTL)
		user.ResetTokenHash = string(hash)
		user.ResetExpiresAt = &expires
		if err := db.Save(&user).Error; err != nil {
			return err
		}

		h.log.Info("password reset requested", slog.Uint64("user_id", uint64(user.ID)))
		resp := fiber.Map{"message": resetIssuedMessage}
		if !h.cfg.IsProduction() {
			resp["reset_token"] = token
		}
		return c.JSON(resp)
	}
}

func (h *Handler) ConfirmPasswordReset() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetConfirmRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		body.Token = strings.TrimSpace(body.Token)
		if err := h.validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		invalid := fiber.NewError(fiber.StatusBadRequest, "Reset token is invalid or has expired")

		db := h.db.WithContext(c.UserContext())
		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return invalid
		}
		if user.ResetTokenHash == "" || user.ResetExpiresAt == nil || h.now().After(*user.ResetExpiresAt) {
			return invalid
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.ResetTokenHash), []byte(body.Token)); err != nil {
			return invalid
		}

		hash, err := hashPassword(body.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.ResetTokenHash = ""
		user.ResetExpiresAt = nil
		user.TokenVersion++
		if err := db.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save user data")
		}

		return c.JSON(fiber.Map{"message": "Password has been reset, please log in"})
	}
}
