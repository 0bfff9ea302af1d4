package models

// DefaultPaymentMethod is used when an order carries no payment method.
const DefaultPaymentMethod = "Credit Card"

// CartItem is one line of the working order.
type CartItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// OrderItem is a line frozen into a history entry.
type OrderItem = CartItem

// OrderDetails is the metadata of the working order.
type OrderDetails struct {
	OrderNumber   string `json:"orderNumber"`
	OrderDate     string `json:"orderDate"` // YYYY-MM-DD
	PaymentMethod string `json:"paymentMethod"`
	IsPaid        bool   `json:"isPaid"`
}

// Order is a placed purchase order kept in history, most recent first.
type Order struct {
	ID            int64       `json:"id"`
	CompanyID     int64       `json:"companyId"`
	SupplierID    int64       `json:"supplierId"`
	SupplierName  string      `json:"supplierName"`
	OrderNumber   string      `json:"orderNumber"`
	OrderDate     string      `json:"orderDate"`
	PaymentMethod string      `json:"paymentMethod"`
	IsPaid        bool        `json:"isPaid"`
	TotalPrice    float64     `json:"totalPrice"`
	Items         []OrderItem `json:"items"`
}

// ItemCount sums the quantities of all lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
