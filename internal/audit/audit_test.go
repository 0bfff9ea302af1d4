package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return db
}

func TestWriteLog(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)

	t.Run("stores before and after as JSON", func(t *testing.T) {
		err := WriteLog(ctx, db, LogOptions{
			UserID:      7,
			UserName:    "Ada",
			EntityType:  "supplier",
			EntityID:    3,
			Action:      models.AuditActionUpdate,
			Description: "Supplier updated",
			Before:      models.Supplier{ID: 3, Name: "Old"},
			After:       models.Supplier{ID: 3, Name: "New"},
		})
		require.NoError(t, err)

		var got models.AuditLog
		require.NoError(t, db.Where("entity_id = ?", 3).First(&got).Error)
		assert.Equal(t, uint(7), got.UserID)

		var after models.Supplier
		require.NoError(t, json.Unmarshal(got.AfterData, &after))
		assert.Equal(t, "New", after.Name)
	})

	t.Run("missing sides become null", func(t *testing.T) {
		require.NoError(t, WriteLog(ctx, db, LogOptions{UserID: 7, EntityType: "cart", Action: models.AuditActionDelete}))

		var got models.AuditLog
		require.NoError(t, db.Where("entity_type = ?", "cart").First(&got).Error)
		assert.Equal(t, "null", string(got.BeforeData))
		assert.Equal(t, "null", string(got.AfterData))
	})
}

func TestListLogs(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)

	for i, opts := range []LogOptions{
		{UserID: 1, EntityType: "supplier", EntityID: 1, Action: models.AuditActionCreate},
		{UserID: 1, EntityType: "product", EntityID: 4, Action: models.AuditActionCreate},
		{UserID: 1, EntityType: "supplier", EntityID: 1, Action: models.AuditActionUpdate},
		{UserID: 2, EntityType: "supplier", EntityID: 1, Action: models.AuditActionDelete},
	} {
		opts.Description = string(rune('a' + i))
		require.NoError(t, WriteLog(ctx, db, opts))
	}

	t.Run("scoped to the user, newest first", func(t *testing.T) {
		logs, err := ListLogs(ctx, db, 1, Filter{})
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, "c", logs[0].Description)
		assert.Equal(t, "a", logs[2].Description)
	})

	t.Run("filters", func(t *testing.T) {
		logs, err := ListLogs(ctx, db, 1, Filter{EntityType: "supplier", EntityID: 1})
		require.NoError(t, err)
		assert.Len(t, logs, 2)

		logs, err = ListLogs(ctx, db, 1, Filter{Action: models.AuditActionCreate, Limit: 1})
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})
}

func TestListAuditLogsHandler(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, WriteLog(context.Background(), db, LogOptions{
		UserID: 5, UserName: "Lin", EntityType: "order", EntityID: 9, Action: models.AuditActionCreate,
		After: map[string]int{"id": 9},
	}))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(5))
		return c.Next()
	})
	app.Get("/audit-logs", ListAuditLogsHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil))))

	t.Run("lists entries", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs?entity_type=order", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body []AuditLogResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, int64(9), body[0].EntityID)
		assert.JSONEq(t, `{"id":9}`, string(body[0].After))
	})

	t.Run("rejects a bad entity id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs?entity_id=abc", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
