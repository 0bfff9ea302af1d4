package state

import (
	"github.com/shopspring/decimal"

	"supplysync-backend/internal/models"
)

// VATRate is the fixed 20% surcharge applied when VAT is enabled.
var VATRate = decimal.NewFromInt(20).Div(decimal.NewFromInt(100))

// Line is an order line whose product still resolves.
type Line struct {
	Product  models.Product
	Quantity int
	Total    decimal.Decimal
}

type Totals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Grand decimal.Decimal
}

// ResolveLines joins items with their products. Lines whose product was
// deleted are skipped.
func (s *State) ResolveLines(items []models.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := s.Product(it.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, Line{
			Product:  p,
			Quantity: it.Quantity,
			Total:    decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return lines
}

func ComputeTotals(lines []Line, vatEnabled bool) Totals {
	net := decimal.Zero
	for _, l := range lines {
		net = net.Add(l.Total)
	}
	vat := decimal.Zero
	if vatEnabled {
		vat = net.Mul(VATRate)
	}
	return Totals{Net: net, VAT: vat, Grand: net.Add(vat)}
}

// CartTotals computes net, VAT and grand total of the working order.
func (s *State) CartTotals() Totals {
	return ComputeTotals(s.ResolveLines(s.Cart), s.VATEnabled)
}
