// Package importexport moves data in and out of a workspace: reviewed
// spreadsheet imports, spreadsheet export and full backups.
package importexport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/reconcile"
	"supplysync-backend/internal/spreadsheet"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	reg       *workspace.Registry
	audit     *audit.Recorder
	log       *slog.Logger
	maxUpload int64
	now       func() time.Time
}

func NewHandler(reg *workspace.Registry, rec *audit.Recorder, log *slog.Logger, maxUpload int64) *Handler {
	return &Handler{reg: reg, audit: rec, log: log, maxUpload: maxUpload, now: time.Now}
}

type PendingResponse struct {
	Message string               `json:"message,omitempty"`
	Changes *reconcile.ChangeSet `json:"changes"`
	Count   int                  `json:"count"`
}

type ApplyResponse struct {
	Message string            `json:"message"`
	Summary reconcile.Summary `json:"summary"`
}

func (h *Handler) readUpload(c *fiber.Ctx) (*multipart.FileHeader, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Choose a file to upload")
	}
	if fh.Size > h.maxUpload {
		return nil, nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "The file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "The file could not be opened")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil || int64(len(data)) > h.maxUpload {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "The file could not be read")
	}
	return fh, data, nil
}

// POST /api/import (multipart "file")
// Analyzes the file against the selected company and keeps the change set
// for review. Nothing is written yet.
func (h *Handler) Upload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		fh, data, err := h.readUpload(c)
		if err != nil {
			return err
		}

		rows, err := spreadsheet.ReadRows(bytes.NewReader(data), fh.Filename)
		if err != nil {
			if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
				return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx and .csv files can be imported.")
			}
			h.log.Warn("read import file", slog.String("file", fh.Filename), slog.Any("error", err))
			return fiber.NewError(fiber.StatusBadRequest, reconcile.ErrEmptyFile.Error())
		}

		var resp PendingResponse
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			cs, err := reconcile.Analyze(s.State, rows)
			if err != nil {
				s.Pending = nil
				var verr *reconcile.ValidationError
				if errors.As(err, &verr) || errors.Is(err, reconcile.ErrEmptyFile) {
					return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
				}
				return err
			}
			if cs.Empty() {
				s.Pending = nil
				resp.Message = "No new data or changes found to import."
				return nil
			}
			s.Pending = cs
			resp.Changes = cs
			resp.Count = len(cs.Keys())
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// GET /api/import/pending
func (h *Handler) Pending() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var resp PendingResponse
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if s.Pending == nil {
				return fiber.NewError(fiber.StatusNotFound, "No import is waiting for review")
			}
			resp.Changes = s.Pending
			resp.Count = len(s.Pending.Keys())
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// POST /api/import/apply {"unchecked": ["supplier:new:acme"]}
func (h *Handler) Apply() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var sel reconcile.Selection
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&sel); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}

		var (
			sum     reconcile.Summary
			applied *reconcile.ChangeSet
		)
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if s.Pending == nil {
				return fiber.NewError(fiber.StatusNotFound, "No import is waiting for review")
			}
			applied = s.Pending
			sum = reconcile.Apply(s.State, s.Pending, sel)
			s.Pending = nil
			return nil
		})
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Import applied: %d new suppliers, %d updated suppliers, %d new products, %d updated products",
			sum.NewSuppliers, sum.UpdatedSuppliers, sum.NewProducts, sum.UpdatedProducts)
		h.audit.Record(c, audit.LogOptions{
			EntityType:  "workspace",
			Action:      models.AuditActionImport,
			Description: desc,
			Before:      applied,
			After:       sum,
		})
		return c.JSON(ApplyResponse{Message: "Import successful!", Summary: sum})
	}
}

// DELETE /api/import/pending
func (h *Handler) Discard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			s.Pending = nil
			return nil
		})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/export
func (h *Handler) Export() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			return spreadsheet.WriteExport(&buf, s.State, s.State.SelectedCompanyID)
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) || errors.Is(err, workspace.ErrLoad) {
				return err
			}
			h.log.Error("write export", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create the export file")
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", spreadsheet.ExportFileName(h.now())))
		return c.Send(buf.Bytes())
	}
}
