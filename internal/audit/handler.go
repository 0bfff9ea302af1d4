package audit

import (
	"fmt"
	"log/slog"

	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    int64              `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      datatypes.JSON     `json:"before"`
	After       datatypes.JSON     `json:"after"`
}

// GET /api/audit-logs?entity_type=supplier&entity_id=1&action=update&limit=50
func ListAuditLogsHandler(db *gorm.DB, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		f := Filter{
			EntityType: c.Query("entity_type"),
			Action:     models.AuditAction(c.Query("action")),
		}
		if s := c.Query("entity_id"); s != "" {
			var eid int64
			if _, err := fmt.Sscan(s, &eid); err != nil || eid <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid entity_id")
			}
			f.EntityID = eid
		}
		if s := c.Query("limit"); s != "" {
			if _, err := fmt.Sscan(s, &f.Limit); err != nil || f.Limit <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid limit")
			}
		}

		logs, err := ListLogs(c.UserContext(), db, id.UserID, f)
		if err != nil {
			log.Error("list audit logs", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				Before:      l.BeforeData,
				After:       l.AfterData,
			})
		}

		return c.JSON(resp)
	}
}
