package ordering

import (
	"fmt"
	"log/slog"

	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/pdf"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) sendPDF(c *fiber.Ctx, po pdf.PurchaseOrder) error {
	now := h.now()
	data, err := pdf.Render(po, now)
	if err != nil {
		h.log.Error("render purchase order", slog.Any("error", err))
		return fiber.NewError(fiber.StatusInternalServerError, "Could not generate the PDF")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", pdf.FileName(po, now)))
	return c.Send(data)
}

// GET /api/cart/pdf
func (h *Handler) CartPDF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var po pdf.PurchaseOrder
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			var ok bool
			if po, ok = pdf.FromCart(s.State); !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Your cart is empty.")
			}
			return nil
		})
		if err != nil {
			return err
		}
		return h.sendPDF(c, po)
	}
}

// GET /api/orders/:id/pdf
func (h *Handler) OrderPDF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id", "order")
		if err != nil {
			return err
		}
		var po pdf.PurchaseOrder
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			o, ok := s.State.Order(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Order not found")
			}
			if po, ok = pdf.FromOrder(s.State, o); !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Cannot generate PDF. The selected order has no items.")
			}
			return nil
		})
		if err != nil {
			return err
		}
		return h.sendPDF(c, po)
	}
}
