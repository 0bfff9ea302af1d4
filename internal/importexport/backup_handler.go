package importexport

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/storage"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

type RestoreResponse struct {
	Message   string `json:"message"`
	Companies int    `json:"companies"`
	Suppliers int    `json:"suppliers"`
	Products  int    `json:"products"`
	Orders    int    `json:"orders"`
}

// GET /api/backup
func (h *Handler) ExportBackup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		now := h.now()
		var data []byte
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			var err error
			data, err = storage.NewBackup(s.State, now).Encode()
			return err
		})
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", storage.BackupFileName(now)))
		return c.Send(data)
	}
}

// POST /api/backup (multipart "file", confirm=true)
// Replaces all current data with the backup.
func (h *Handler) RestoreBackup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		confirm := c.FormValue("confirm")
		if confirm == "" {
			confirm = c.Query("confirm")
		}
		if ok, _ := strconv.ParseBool(confirm); !ok {
			return fiber.NewError(fiber.StatusPreconditionRequired,
				"This will replace all current data with the backup data. Send confirm=true to continue.")
		}

		_, data, err := h.readUpload(c)
		if err != nil {
			return err
		}
		b, err := storage.DecodeBackup(data)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidBackup) {
				h.log.Info("rejected backup file", slog.Any("error", err))
				return fiber.NewError(fiber.StatusBadRequest, "Invalid backup file format.")
			}
			return err
		}

		var resp RestoreResponse
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			b.Restore(s.State)
			s.ResetScope()
			resp = RestoreResponse{
				Message:   "Backup imported successfully!",
				Companies: len(s.State.Companies),
				Suppliers: len(s.State.Suppliers),
				Products:  len(s.State.Products),
				Orders:    len(s.State.OrderHistory),
			}
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "workspace",
			Action:      models.AuditActionRestore,
			Description: fmt.Sprintf("Backup from %s restored", b.ExportDate),
			After:       resp,
		})
		return c.JSON(resp)
	}
}
