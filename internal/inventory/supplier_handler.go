package inventory

import (
	"fmt"
	"strings"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

type CreateSupplierRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
	Photo   string `json:"photo"` // data: URL
}

type UpdateSupplierRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
	Photo   *string `json:"photo"` // "" removes the photo
}

type SupplierListResponse struct {
	Suppliers          []models.Supplier `json:"suppliers"`
	SelectedSupplierID int64             `json:"selectedSupplierId"`
}

const supplierNameRequired = "Supplier name is required."

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

// GET /api/suppliers?search=acme
func (h *Handler) ListSuppliers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var resp SupplierListResponse
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			resp.Suppliers = s.State.SearchSuppliers(s.State.SelectedCompanyID, c.Query("search"))
			resp.SelectedSupplierID = s.State.SelectedSupplierID
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// POST /api/suppliers
func (h *Handler) CreateSupplier() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return validationError(err, supplierNameRequired)
		}
		if err := h.photos.Check(body.Photo); err != nil {
			return photoError(err)
		}

		var created models.Supplier
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			id := s.State.SaveSupplier(models.Supplier{
				Name:    body.Name,
				Email:   body.Email,
				Phone:   strings.TrimSpace(body.Phone),
				Address: strings.TrimSpace(body.Address),
				Notes:   strings.TrimSpace(body.Notes),
				Photo:   body.Photo,
			})
			created, _ = s.State.Supplier(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Supplier created: %s", created.Name),
			After:       created,
		})
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// PUT /api/suppliers/:id
func (h *Handler) UpdateSupplier() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "supplier")
		if err != nil {
			return err
		}
		var body UpdateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		trimPtr(body.Name)
		trimPtr(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return validationError(err, supplierNameRequired)
		}
		if body.Photo != nil {
			if err := h.photos.Check(*body.Photo); err != nil {
				return photoError(err)
			}
		}

		var before, after models.Supplier
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			sup, ok := s.State.Supplier(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
			}
			before = sup
			if body.Name != nil {
				sup.Name = *body.Name
			}
			if body.Email != nil {
				sup.Email = *body.Email
			}
			if body.Phone != nil {
				sup.Phone = strings.TrimSpace(*body.Phone)
			}
			if body.Address != nil {
				sup.Address = strings.TrimSpace(*body.Address)
			}
			if body.Notes != nil {
				sup.Notes = strings.TrimSpace(*body.Notes)
			}
			if body.Photo != nil {
				sup.Photo = *body.Photo
			}
			s.State.SaveSupplier(sup)
			after, _ = s.State.Supplier(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supplier updated: %s", after.Name),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/suppliers/:id
func (h *Handler) DeleteSupplier() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "supplier")
		if err != nil {
			return err
		}

		var deleted models.Supplier
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			sup, ok := s.State.Supplier(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
			}
			deleted = sup
			s.State.DeleteSupplier(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Supplier deleted with its products: %s", deleted.Name),
			Before:      deleted,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/suppliers/:id/select
func (h *Handler) SelectSupplier() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "supplier")
		if err != nil {
			return err
		}

		var selected models.Supplier
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			sup, ok := s.State.Supplier(id)
			if !ok || sup.CompanyID != s.State.SelectedCompanyID {
				return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
			}
			s.State.SelectSupplier(id)
			selected = sup
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(selected)
	}
}

// DELETE /api/suppliers/selection
func (h *Handler) ClearSupplierSelection() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			s.State.SelectSupplier(0)
			return nil
		})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/suppliers/:id/photo (multipart "file" or {"url": "..."})
func (h *Handler) SetSupplierPhoto() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "supplier")
		if err != nil {
			return err
		}
		photo, err := h.readPhoto(c)
		if err != nil {
			return err
		}

		var updated models.Supplier
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			sup, ok := s.State.Supplier(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
			}
			sup.Photo = photo
			s.State.SaveSupplier(sup)
			updated = sup
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supplier photo changed: %s", updated.Name),
		})
		return c.JSON(updated)
	}
}
