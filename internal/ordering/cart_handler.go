package ordering

import (
	"time"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

type AddItemRequest struct {
	ProductID int64 `json:"productId"`
}

type QuantityRequest struct {
	Delta int `json:"delta"`
}

type VATRequest struct {
	Enabled *bool `json:"enabled"`
}

// cartAction runs fn as a saved action and answers with the resulting cart.
func (h *Handler) cartAction(c *fiber.Ctx, fn func(*workspace.Session) error) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var view CartView
	err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		view = NewCartView(s)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// GET /api/cart
func (h *Handler) GetCart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var view CartView
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			view = NewCartView(s)
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(view)
	}
}

// POST /api/cart/items
func (h *Handler) AddItem() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddItemRequest
		if err := c.BodyParser(&body); err != nil || body.ProductID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "productId is required")
		}
		return h.cartAction(c, func(s *workspace.Session) error {
			p, ok := s.State.Product(body.ProductID)
			if !ok || p.CompanyID != s.State.SelectedCompanyID {
				return fiber.NewError(fiber.StatusNotFound, "Product not found")
			}
			s.State.AddToCart(p.ID)
			return nil
		})
	}
}

// PATCH /api/cart/items/:productId {"delta": -1}
func (h *Handler) UpdateQuantity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := parseID(c, "productId", "product")
		if err != nil {
			return err
		}
		var body QuantityRequest
		if err := c.BodyParser(&body); err != nil || body.Delta == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "delta must be a non-zero integer")
		}
		return h.cartAction(c, func(s *workspace.Session) error {
			s.State.UpdateCartQuantity(productID, body.Delta)
			return nil
		})
	}
}

// DELETE /api/cart
func (h *Handler) ClearCart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := h.cartAction(c, func(s *workspace.Session) error {
			s.State.ClearCart()
			s.Edit = nil
			return nil
		})
		if err != nil {
			return err
		}
		h.audit.Record(c, audit.LogOptions{
			EntityType:  "cart",
			Action:      models.AuditActionDelete,
			Description: "Cart cleared",
		})
		return nil
	}
}

// PUT /api/order/vat {"enabled": true}
func (h *Handler) SetVAT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VATRequest
		if err := c.BodyParser(&body); err != nil || body.Enabled == nil {
			return fiber.NewError(fiber.StatusBadRequest, "enabled is required")
		}
		return h.cartAction(c, func(s *workspace.Session) error {
			s.State.ToggleVAT(*body.Enabled)
			return nil
		})
	}
}

// PATCH /api/order/details
func (h *Handler) UpdateDetails() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body state.OrderDetailsPatch
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.OrderDate != nil {
			if _, err := time.Parse(state.DateLayout, *body.OrderDate); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "orderDate must be YYYY-MM-DD")
			}
		}
		return h.cartAction(c, func(s *workspace.Session) error {
			s.State.UpdateOrderDetails(body)
			return nil
		})
	}
}
