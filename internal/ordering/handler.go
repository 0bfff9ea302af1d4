// Package ordering serves the working order (cart, VAT, details), order
// history and purchase-order PDFs.
package ordering

import (
	"fmt"
	"log/slog"
	"time"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	reg   *workspace.Registry
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

func NewHandler(reg *workspace.Registry, rec *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{reg: reg, audit: rec, log: log, now: time.Now}
}

type CartLine struct {
	ProductID  int64   `json:"productId"`
	Title      string  `json:"title"`
	Code       string  `json:"code"`
	AmazonCode string  `json:"amazonCode"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Total      float64 `json:"total"`
}

type TotalsView struct {
	Net   float64 `json:"net"`
	VAT   float64 `json:"vat"`
	Grand float64 `json:"grand"`
}

// CartView is the working order as the client renders it.
type CartView struct {
	Items              []CartLine          `json:"items"`
	Totals             TotalsView          `json:"totals"`
	VATEnabled         bool                `json:"vatEnabled"`
	OrderDetails       models.OrderDetails `json:"orderDetails"`
	SelectedSupplierID int64               `json:"selectedSupplierId"`
	EditingOrderID     *int64              `json:"editingOrderId"`
}

func NewTotalsView(t state.Totals) TotalsView {
	return TotalsView{
		Net:   t.Net.Round(2).InexactFloat64(),
		VAT:   t.VAT.Round(2).InexactFloat64(),
		Grand: t.Grand.Round(2).InexactFloat64(),
	}
}

// NewCartView resolves the cart of a session. Lines whose product is gone
// are left out, as they are from the totals.
func NewCartView(s *workspace.Session) CartView {
	st := s.State
	lines := st.ResolveLines(st.Cart)
	view := CartView{
		Items:              make([]CartLine, 0, len(lines)),
		Totals:             NewTotalsView(state.ComputeTotals(lines, st.VATEnabled)),
		VATEnabled:         st.VATEnabled,
		OrderDetails:       st.OrderDetails,
		SelectedSupplierID: st.SelectedSupplierID,
	}
	for _, l := range lines {
		view.Items = append(view.Items, CartLine{
			ProductID:  l.Product.ID,
			Title:      l.Product.Title,
			Code:       l.Product.Code,
			AmazonCode: l.Product.AmazonCode,
			Price:      l.Product.Price,
			Quantity:   l.Quantity,
			Total:      l.Total.Round(2).InexactFloat64(),
		})
	}
	if s.Edit != nil {
		id := s.Edit.OrderID
		view.EditingOrderID = &id
	}
	return view
}

func parseID(c *fiber.Ctx, param, what string) (int64, error) {
	var id int64
	if _, err := fmt.Sscan(c.Params(param), &id); err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+what+" id")
	}
	return id, nil
}
