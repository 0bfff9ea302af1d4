// Package pdf renders purchase orders.
//
// Layout turns an order into a flat list of positioned elements, and Render
// draws that list with gofpdf. The same order always gives the same layout.
package pdf

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// PurchaseOrder is everything printed on one order document.
type PurchaseOrder struct {
	Company  *models.Company
	Supplier *models.Supplier
	Details  models.OrderDetails
	Lines    []state.Line
	Totals   state.Totals
	ShowVAT  bool
	Reprint  bool
}

// FromCart builds the document of the working order. It reports false for
// an empty cart.
func FromCart(st *state.State) (PurchaseOrder, bool) {
	if len(st.Cart) == 0 {
		return PurchaseOrder{}, false
	}
	po := PurchaseOrder{
		Details: st.OrderDetails,
		Lines:   st.ResolveLines(st.Cart),
		Totals:  st.CartTotals(),
		ShowVAT: st.VATEnabled,
	}
	if c, ok := st.SelectedCompany(); ok {
		po.Company = &c
	}
	if s, ok := st.SelectedSupplier(); ok {
		po.Supplier = &s
	}
	return po, true
}

// FromOrder builds a reprint of a history entry. VAT is whatever the stored
// total holds above the net of the lines that still resolve.
func FromOrder(st *state.State, o models.Order) (PurchaseOrder, bool) {
	if len(o.Items) == 0 {
		return PurchaseOrder{}, false
	}
	lines := st.ResolveLines(o.Items)
	net := state.ComputeTotals(lines, false).Net
	vat := decimal.NewFromFloat(o.TotalPrice).Sub(net)
	if vat.IsNegative() {
		vat = decimal.Zero
	}

	po := PurchaseOrder{
		Details: models.OrderDetails{
			OrderNumber:   o.OrderNumber,
			OrderDate:     o.OrderDate,
			PaymentMethod: o.PaymentMethod,
			IsPaid:        o.IsPaid,
		},
		Lines:   lines,
		Totals:  state.Totals{Net: net, VAT: vat, Grand: net.Add(vat)},
		ShowVAT: vat.GreaterThan(decimal.RequireFromString("0.005")),
		Reprint: true,
	}
	if c, ok := st.Company(o.CompanyID); ok {
		po.Company = &c
	}
	if s, ok := st.Supplier(o.SupplierID); ok {
		po.Supplier = &s
	} else if o.SupplierName != "" && o.SupplierName != "N/A" {
		po.Supplier = &models.Supplier{Name: o.SupplierName}
	}
	return po, true
}

// FileName is the download name of the document generated at now.
func FileName(po PurchaseOrder, now time.Time) string {
	num := po.Details.OrderNumber
	if num == "" {
		num = "General"
	}
	prefix := "Order"
	if po.Reprint {
		prefix = "Reprint_Order"
	}
	return fmt.Sprintf("%s_%s_%d.pdf", prefix, num, now.UnixMilli())
}
