package ordering

import (
	"fmt"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

type PaidRequest struct {
	IsPaid *bool `json:"isPaid"`
}

type PlaceOrderResponse struct {
	Order   models.Order `json:"order"`
	Updated bool         `json:"updated"`
	Cart    CartView     `json:"cart"`
}

// POST /api/orders
func (h *Handler) PlaceOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var resp PlaceOrderResponse
		var before *models.Order
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if len(s.State.Cart) == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Your cart is empty. Please add items before placing an order.")
			}
			if s.Edit != nil {
				if o, ok := s.State.Order(s.Edit.OrderID); ok {
					before = &o
				}
			}
			order, _ := s.State.PlaceOrder(s.Edit)
			s.Edit = nil
			resp = PlaceOrderResponse{Order: order, Updated: before != nil, Cart: NewCartView(s)}
			return nil
		})
		if err != nil {
			return err
		}

		opts := audit.LogOptions{
			EntityType:  "order",
			EntityID:    resp.Order.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Order placed: %s", orderLabel(resp.Order)),
			After:       resp.Order,
		}
		status := fiber.StatusCreated
		if before != nil {
			opts.Action = models.AuditActionUpdate
			opts.Description = fmt.Sprintf("Order updated: %s", orderLabel(resp.Order))
			opts.Before = before
			status = fiber.StatusOK
		}
		h.audit.Record(c, opts)
		return c.Status(status).JSON(resp)
	}
}

func orderLabel(o models.Order) string {
	if o.OrderNumber == "" {
		return fmt.Sprintf("#%d", o.ID)
	}
	return o.OrderNumber
}

// GET /api/orders?supplier_id=3&search=po-12
// Without supplier_id the selected supplier narrows the list;
// supplier_id=0 lists every supplier.
func (h *Handler) ListOrders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var supplierID int64
		explicit := c.Query("supplier_id") != ""
		if explicit {
			if _, err := fmt.Sscan(c.Query("supplier_id"), &supplierID); err != nil || supplierID < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier_id")
			}
		}

		var orders []models.Order
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if !explicit {
				supplierID = s.State.SelectedSupplierID
			}
			orders = s.State.FilterOrders(state.OrderFilter{
				CompanyID:  s.State.SelectedCompanyID,
				SupplierID: supplierID,
				Search:     c.Query("search"),
			})
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(orders)
	}
}

// POST /api/orders/:id/edit
func (h *Handler) LoadForEditing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id", "order")
		if err != nil {
			return err
		}
		return h.cartAction(c, func(s *workspace.Session) error {
			edit, ok := s.State.LoadOrderForEditing(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Order not found")
			}
			// the company may have switched
			s.ResetScope()
			s.Edit = edit
			return nil
		})
	}
}

// PUT /api/orders/:id/paid {"isPaid": true}
func (h *Handler) SetPaid() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id", "order")
		if err != nil {
			return err
		}
		var body PaidRequest
		if err := c.BodyParser(&body); err != nil || body.IsPaid == nil {
			return fiber.NewError(fiber.StatusBadRequest, "isPaid is required")
		}

		var order models.Order
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if !s.State.SetOrderPaid(id, *body.IsPaid) {
				return fiber.NewError(fiber.StatusNotFound, "Order not found")
			}
			order, _ = s.State.Order(id)
			return nil
		})
		if err != nil {
			return err
		}

		status := "unpaid"
		if order.IsPaid {
			status = "paid"
		}
		h.audit.Record(c, audit.LogOptions{
			EntityType:  "order",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Order %s marked %s", orderLabel(order), status),
		})
		return c.JSON(order)
	}
}

// DELETE /api/orders/:id
func (h *Handler) DeleteOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id", "order")
		if err != nil {
			return err
		}

		var deleted models.Order
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			o, ok := s.State.Order(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Order not found")
			}
			deleted = o
			s.State.DeleteOrder(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "order",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Order deleted: %s", orderLabel(deleted)),
			Before:      deleted,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
