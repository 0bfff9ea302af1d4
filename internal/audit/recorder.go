package audit

import (
	"log/slog"

	"supplysync-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Recorder writes audit entries on behalf of the authenticated caller.
type Recorder struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRecorder(db *gorm.DB, log *slog.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record stamps opts with the caller and writes it. The user action it
// describes already happened, so a failure is only logged.
func (r *Recorder) Record(c *fiber.Ctx, opts LogOptions) {
	if r == nil {
		return
	}
	if id, err := auth.CurrentUser(c); err == nil {
		opts.UserID = id.UserID
		opts.UserName = id.Name
	}
	if err := WriteLog(c.UserContext(), r.db, opts); err != nil {
		r.log.Warn("audit log not written",
			slog.String("entity_type", opts.EntityType),
			slog.Int64("entity_id", opts.EntityID),
			slog.Any("error", err),
		)
	}
}
