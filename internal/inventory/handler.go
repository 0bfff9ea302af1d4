// Package inventory serves suppliers and products of the selected company.
package inventory

import (
	"errors"
	"fmt"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/workspace"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	reg      *workspace.Registry
	audit    *audit.Recorder
	photos   *PhotoFetcher
	validate *validator.Validate
}

func NewHandler(reg *workspace.Registry, rec *audit.Recorder, photos *PhotoFetcher) *Handler {
	return &Handler{reg: reg, audit: rec, photos: photos, validate: validator.New()}
}

func parseID(c *fiber.Ctx, what string) (int64, error) {
	var id int64
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+what+" id")
	}
	return id, nil
}

func queryID(c *fiber.Ctx, key string) (int64, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	var id int64
	if _, err := fmt.Sscan(s, &id); err != nil || id < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return id, nil
}

func photoError(err error) error {
	switch {
	case errors.Is(err, ErrPhotoTooLarge):
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Photo is too large")
	case errors.Is(err, ErrNotAnImage):
		return fiber.NewError(fiber.StatusBadRequest, "Photo must be an image")
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Could not read the photo")
	}
}

func validationError(err error, required string) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		switch errs[0].Tag() {
		case "required", "min":
			return fiber.NewError(fiber.StatusBadRequest, required)
		case "email":
			return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid email address")
		case "gte":
			return fiber.NewError(fiber.StatusBadRequest, "Price cannot be negative")
		}
	}
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request")
}

// readPhoto accepts either a multipart "file" or a "url" to download.
func (h *Handler) readPhoto(c *fiber.Ctx) (string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		photo, err := h.photos.FromUpload(fh)
		if err != nil {
			return "", photoError(err)
		}
		return photo, nil
	}

	var body struct {
		URL string `json:"url" form:"url"`
	}
	_ = c.BodyParser(&body)
	if body.URL == "" {
		body.URL = c.FormValue("url")
	}
	if body.URL == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Send a photo file or a url")
	}
	photo, err := h.photos.Download(c.UserContext(), body.URL)
	if err != nil {
		if errors.Is(err, ErrPhotoTooLarge) || errors.Is(err, ErrNotAnImage) {
			return "", photoError(err)
		}
		return "", fiber.NewError(fiber.StatusBadGateway, "Could not download the photo")
	}
	return photo, nil
}
