package state

import "supplysync-backend/internal/models"

// AddToCart increments the line of the product or inserts it with quantity 1.
// Unknown products are ignored.
func (s *State) AddToCart(productID int64) {
	if s.productIndex(productID) < 0 {
		return
	}
	if i := s.cartIndex(productID); i >= 0 {
		s.Cart[i].Quantity++
		return
	}
	s.Cart = append(s.Cart, models.CartItem{ProductID: productID, Quantity: 1})
}

// UpdateCartQuantity adds delta to an existing line and drops it at <= 0.
func (s *State) UpdateCartQuantity(productID int64, delta int) {
	i := s.cartIndex(productID)
	if i < 0 {
		return
	}
	s.Cart[i].Quantity += delta
	if s.Cart[i].Quantity <= 0 {
		s.Cart = append(s.Cart[:i:i], s.Cart[i+1:]...)
	}
}

// ClearCart empties the working order lines. Any edit session the caller
// holds must be dropped with it.
func (s *State) ClearCart() {
	s.Cart = []models.CartItem{}
}

func (s *State) ToggleVAT(enabled bool) {
	s.VATEnabled = enabled
}

// OrderDetailsPatch carries the fields to overwrite; nil fields are kept.
type OrderDetailsPatch struct {
	OrderNumber   *string `json:"orderNumber"`
	OrderDate     *string `json:"orderDate"`
	PaymentMethod *string `json:"paymentMethod"`
	IsPaid        *bool   `json:"isPaid"`
}

func (s *State) UpdateOrderDetails(p OrderDetailsPatch) {
	if p.OrderNumber != nil {
		s.OrderDetails.OrderNumber = *p.OrderNumber
	}
	if p.OrderDate != nil {
		s.OrderDetails.OrderDate = *p.OrderDate
	}
	if p.PaymentMethod != nil {
		s.OrderDetails.PaymentMethod = *p.PaymentMethod
	}
	if p.IsPaid != nil {
		s.OrderDetails.IsPaid = *p.IsPaid
	}
}
