package state

import (
	"strings"

	"supplysync-backend/internal/models"
)

// EditSession marks that the working order was loaded from history, so the
// next PlaceOrder overwrites that entry instead of adding a new one.
type EditSession struct {
	OrderID int64 `json:"orderId"`
}

// PlaceOrder turns the cart into a history entry. With a non-nil edit
// session the existing entry keeps its id and position. The cart and the
// order number are reset afterwards; the caller drops the edit session.
// It reports false when the cart is empty.
func (s *State) PlaceOrder(edit *EditSession) (models.Order, bool) {
	if len(s.Cart) == 0 {
		return models.Order{}, false
	}

	supplierName := "N/A"
	if sup, ok := s.Supplier(s.SelectedSupplierID); ok {
		supplierName = sup.Name
	}
	totals := s.CartTotals()

	order := models.Order{
		CompanyID:     s.SelectedCompanyID,
		SupplierID:    s.SelectedSupplierID,
		SupplierName:  supplierName,
		OrderNumber:   s.OrderDetails.OrderNumber,
		OrderDate:     s.OrderDetails.OrderDate,
		PaymentMethod: s.OrderDetails.PaymentMethod,
		IsPaid:        s.OrderDetails.IsPaid,
		TotalPrice:    totals.Grand.InexactFloat64(),
		Items:         append([]models.OrderItem(nil), s.Cart...),
	}

	i := -1
	if edit != nil {
		i = s.orderIndex(edit.OrderID)
	}
	if i >= 0 {
		order.ID = edit.OrderID
		s.OrderHistory[i] = order
	} else {
		// the edited entry may have been deleted meanwhile; keep the order anyway
		order.ID = nextID(&s.NextIDs.Order, s.OrderHistory, func(o models.Order) int64 { return o.ID })
		s.OrderHistory = append([]models.Order{order}, s.OrderHistory...)
	}

	s.Cart = []models.CartItem{}
	s.OrderDetails.OrderNumber = ""
	return order, true
}

// LoadOrderForEditing copies a history entry back into the working order.
func (s *State) LoadOrderForEditing(orderID int64) (*EditSession, bool) {
	o, ok := s.Order(orderID)
	if !ok {
		return nil, false
	}

	s.selectCompany(o.CompanyID)
	s.Cart = append([]models.CartItem{}, o.Items...)
	s.SelectedSupplierID = o.SupplierID

	pm := o.PaymentMethod
	if pm == "" {
		pm = models.DefaultPaymentMethod
	}
	s.OrderDetails = models.OrderDetails{
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.OrderDate,
		PaymentMethod: pm,
		IsPaid:        o.IsPaid,
	}
	return &EditSession{OrderID: o.ID}, true
}

// SetOrderPaid flips the paid flag of a history entry.
func (s *State) SetOrderPaid(orderID int64, paid bool) bool {
	i := s.orderIndex(orderID)
	if i < 0 {
		return false
	}
	s.OrderHistory[i].IsPaid = paid
	return true
}

func (s *State) DeleteOrder(orderID int64) {
	s.OrderHistory = filter(s.OrderHistory, func(o models.Order) bool { return o.ID != orderID })
}

// OrderFilter narrows the history listing of one company.
type OrderFilter struct {
	CompanyID  int64
	SupplierID int64
	Search     string
}

// FilterOrders keeps history order (most recent first). Search matches the
// order number or supplier name, case-insensitively.
func (s *State) FilterOrders(f OrderFilter) []models.Order {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Order, 0)
	for _, o := range s.OrderHistory {
		if o.CompanyID != f.CompanyID {
			continue
		}
		if f.SupplierID != 0 && o.SupplierID != f.SupplierID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(o.OrderNumber), term) &&
			!strings.Contains(strings.ToLower(o.SupplierName), term) {
			continue
		}
		out = append(out, o)
	}
	return out
}
