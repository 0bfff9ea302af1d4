package auth

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Handler serves the account endpoints.
type Handler struct {
	db       *gorm.DB
	cfg      *config.Config
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	// OnLogout runs after a user's tokens were revoked.
	OnLogout func(userID uint)
}

func NewHandler(db *gorm.DB, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, FullName: u.FullName, Email: u.Email, CreatedAt: u.CreatedAt}
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// validationMessage turns the first failed rule into a sentence a user can act on.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "Invalid request"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return "All fields are required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		if strings.Contains(fe.Field(), "Password") {
			return "Password must be at least 6 characters long"
		}
		return fe.Field() + " is too short"
	default:
		return fe.Error()
	}
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *Handler) Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.FullName = strings.TrimSpace(body.FullName)
		body.Email = normalizeEmail(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		var count int64
		if err := h.db.WithContext(c.UserContext()).Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "User with this email already exists")
		}

		hash, err := hashPassword(body.Password)
		if err != nil {
			return err
		}
		user := models.User{
			FullName:     body.FullName,
			Email:        body.Email,
			PasswordHash: hash,
		}
		if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			h.log.Error("create user", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save user data")
		}

		h.log.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

func (h *Handler) Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email and password are required")
		}

		var user models.User
		if err := h.db.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Incorrect email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Incorrect email or password")
		}

		token, err := GenerateToken(h.cfg.JWTSecret, h.cfg.JWTTTL, &user, h.now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

func (h *Handler) Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		var user models.User
		if err := h.db.WithContext(c.UserContext()).First(&user, id.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return c.JSON(toUserResponse(user))
	}
}

// Logout revokes every token issued to the caller so far.
func (h *Handler) Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		if err := h.db.WithContext(c.UserContext()).Model(&models.User{}).
			Where("id = ?", id.UserID).
			UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error; err != nil {
			return err
		}
		if h.OnLogout != nil {
			h.OnLogout(id.UserID)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func (h *Handler) UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.FullName != nil {
			v := strings.TrimSpace(*body.FullName)
			body.FullName = &v
		}
		if body.Email != nil {
			v := normalizeEmail(*body.Email)
			body.Email = &v
		}
		if err := h.validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		db := h.db.WithContext(c.UserContext())
		var user models.User
		if err := db.First(&user, id.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		if body.Email != nil && *body.Email != user.Email {
			var count int64
			if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", *body.Email, user.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Email is already in use by another account")
			}
			user.Email = *body.Email
		}
		if body.FullName != nil {
			user.FullName = *body.FullName
		}

		if err := db.Save(&user).Error; err != nil {
			h.log.Error("update profile", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save user data")
		}
		return c.JSON(toUserResponse(user))
	}
}

func (h *Handler) ChangePassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentUser(c)
		if err != nil {
			return err
		}
		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := h.validate.Struct(body); err != nil {
			if strings.Contains(validationMessage(err), "at least 6") {
				return fiber.NewError(fiber.StatusBadRequest, "New password must be at least 6 characters long")
			}
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		db := h.db.WithContext(c.UserContext())
		var user models.User
		if err := db.First(&user, id.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Current password is incorrect")
		}

		hash, err := hashPassword(body.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.TokenVersion++
		if err := db.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to save user data")
		}

		// the caller keeps working with a fresh token
		token, err := GenerateToken(h.cfg.JWTSecret, h.cfg.JWTTTL, &user, h.now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}
		return c.JSON(fiber.Map{"token": token})
	}
}
