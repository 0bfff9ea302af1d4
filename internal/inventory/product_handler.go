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

type CreateProductRequest struct {
	SupplierID int64   `json:"supplierId"` // defaults to the selected supplier
	Title      string  `json:"title" validate:"required"`
	Price      float64 `json:"price" validate:"gte=0"`
	Code       string  `json:"code"`
	AmazonCode string  `json:"amazonCode"`
	Desc       string  `json:"desc"`
	Photo      string  `json:"photo"`
}

type UpdateProductRequest struct {
	Title      *string  `json:"title" validate:"omitempty,min=1"`
	Price      *float64 `json:"price" validate:"omitempty,gte=0"`
	Code       *string  `json:"code"`
	AmazonCode *string  `json:"amazonCode"`
	Desc       *string  `json:"desc"`
	Photo      *string  `json:"photo"`
}

const productTitleRequired = "Product Title and Price are required."

// GET /api/products?supplier_id=3&search=widget
// Without supplier_id the selected supplier is used; with neither the
// list is empty.
func (h *Handler) ListProducts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		supplierID, err := queryID(c, "supplier_id")
		if err != nil {
			return err
		}

		products := []models.Product{}
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if supplierID == 0 {
				supplierID = s.State.SelectedSupplierID
			}
			if supplierID == 0 {
				return nil
			}
			products = s.State.SearchProducts(s.State.SelectedCompanyID, supplierID, c.Query("search"))
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(products)
	}
}

// POST /api/products
func (h *Handler) CreateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Title = strings.TrimSpace(body.Title)
		if err := h.validate.Struct(body); err != nil {
			return validationError(err, productTitleRequired)
		}
		if err := h.photos.Check(body.Photo); err != nil {
			return photoError(err)
		}

		var created models.Product
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			supplierID := body.SupplierID
			if supplierID == 0 {
				supplierID = s.State.SelectedSupplierID
			}
			sup, ok := s.State.Supplier(supplierID)
			if !ok || sup.CompanyID != s.State.SelectedCompanyID {
				return fiber.NewError(fiber.StatusBadRequest, "Select a supplier before adding products")
			}
			id := s.State.SaveProduct(models.Product{
				SupplierID: sup.ID,
				Title:      body.Title,
				Price:      body.Price,
				Code:       strings.TrimSpace(body.Code),
				AmazonCode: strings.TrimSpace(body.AmazonCode),
				Desc:       strings.TrimSpace(body.Desc),
				Photo:      body.Photo,
			})
			created, _ = s.State.Product(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Product created: %s", created.Title),
			After:       created,
		})
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// PUT /api/products/:id
func (h *Handler) UpdateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "product")
		if err != nil {
			return err
		}
		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		trimPtr(body.Title)
		if err := h.validate.Struct(body); err != nil {
			return validationError(err, productTitleRequired)
		}
		if body.Photo != nil {
			if err := h.photos.Check(*body.Photo); err != nil {
				return photoError(err)
			}
		}

		var before, after models.Product
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			p, ok := s.State.Product(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			before = p
			if body.Title != nil {
				p.Title = *body.Title
			}
			if body.Price != nil {
				p.Price = *body.Price
			}
			if body.Code != nil {
				p.Code = strings.TrimSpace(*body.Code)
			}
			if body.AmazonCode != nil {
				p.AmazonCode = strings.TrimSpace(*body.AmazonCode)
			}
			if body.Desc != nil {
				p.Desc = strings.TrimSpace(*body.Desc)
			}
			if body.Photo != nil {
				p.Photo = *body.Photo
			}
			s.State.SaveProduct(p)
			after, _ = s.State.Product(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Product updated: %s", after.Title),
			Before:      before,
			After:       after,
		})
		return c.JSON(after)
	}
}

// DELETE /api/products/:id
func (h *Handler) DeleteProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "product")
		if err != nil {
			return err
		}

		var deleted models.Product
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			p, ok := s.State.Product(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			deleted = p
			s.State.DeleteProduct(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Product deleted: %s", deleted.Title),
			Before:      deleted,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/products/:id/photo (multipart "file" or {"url": "..."})
func (h *Handler) SetProductPhoto() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "product")
		if err != nil {
			return err
		}
		photo, err := h.readPhoto(c)
		if err != nil {
			return err
		}

		var updated models.Product
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			p, ok := s.State.Product(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			p.Photo = photo
			s.State.SaveProduct(p)
			updated = p
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "product",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Product photo changed: %s", updated.Title),
		})
		return c.JSON(updated)
	}
}
