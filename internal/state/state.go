// Package state holds the in-memory workspace of one user: companies,
// suppliers, products, the working order and order history. Mutations are
// plain methods without I/O; callers persist afterwards.
package state

import (
	"strings"
	"time"

	"supplysync-backend/internal/models"
)

// DateLayout is the format of order dates.
const DateLayout = "2006-01-02"

type State struct {
	Companies          []models.Company
	SelectedCompanyID  int64
	Suppliers          []models.Supplier
	Products           []models.Product
	Cart               []models.CartItem
	OrderHistory       []models.Order
	VATEnabled         bool
	OrderDetails       models.OrderDetails
	SelectedSupplierID int64 // 0: none
	NextIDs            IDCounters
}

// IDCounters is the next id to hand out per collection. Counters only grow,
// so the id of a deleted record is never given to a new one.
type IDCounters struct {
	Company  int64 `json:"company"`
	Supplier int64 `json:"supplier"`
	Product  int64 `json:"product"`
	Order    int64 `json:"order"`
}

// New returns a workspace with the single default company and empty collections.
func New(today time.Time) *State {
	s := &State{
		Companies:         []models.Company{models.DefaultCompany()},
		SelectedCompanyID: models.DefaultCompany().ID,
		Suppliers:         []models.Supplier{},
		Products:          []models.Product{},
		Cart:              []models.CartItem{},
		OrderHistory:      []models.Order{},
		OrderDetails:      DefaultOrderDetails(today),
	}
	s.SeedIDs()
	return s
}

func DefaultOrderDetails(today time.Time) models.OrderDetails {
	return models.OrderDetails{
		OrderDate:     today.Format(DateLayout),
		PaymentMethod: models.DefaultPaymentMethod,
	}
}

// nextID takes the next id from counter. Ids already present in items are
// skipped, which covers states whose counter was never persisted.
func nextID[T any](counter *int64, items []T, id func(T) int64) int64 {
	next := max(*counter, 1)
	for _, it := range items {
		if v := id(it); v >= next {
			next = v + 1
		}
	}
	*counter = next + 1
	return next
}

// SeedIDs raises every counter above the ids present in the workspace,
// including ids that order lines and the cart still reference.
func (s *State) SeedIDs() {
	c := &s.NextIDs
	for _, co := range s.Companies {
		raise(&c.Company, co.ID)
	}
	for _, sup := range s.Suppliers {
		raise(&c.Supplier, sup.ID)
	}
	for _, p := range s.Products {
		raise(&c.Supplier, p.SupplierID)
		raise(&c.Product, p.ID)
	}
	for _, it := range s.Cart {
		raise(&c.Product, it.ProductID)
	}
	for _, o := range s.OrderHistory {
		raise(&c.Company, o.CompanyID)
		raise(&c.Supplier, o.SupplierID)
		raise(&c.Order, o.ID)
		for _, it := range o.Items {
			raise(&c.Product, it.ProductID)
		}
	}
}

func raise(counter *int64, id int64) {
	if id > 0 && id >= *counter {
		*counter = id + 1
	}
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *State) companyIndex(id int64) int {
	return indexOf(s.Companies, func(c models.Company) bool { return c.ID == id })
}

func (s *State) supplierIndex(id int64) int {
	return indexOf(s.Suppliers, func(sup models.Supplier) bool { return sup.ID == id })
}

func (s *State) productIndex(id int64) int {
	return indexOf(s.Products, func(p models.Product) bool { return p.ID == id })
}

func (s *State) orderIndex(id int64) int {
	return indexOf(s.OrderHistory, func(o models.Order) bool { return o.ID == id })
}

func (s *State) cartIndex(productID int64) int {
	return indexOf(s.Cart, func(it models.CartItem) bool { return it.ProductID == productID })
}

func (s *State) Company(id int64) (models.Company, bool) {
	if i := s.companyIndex(id); i >= 0 {
		return s.Companies[i], true
	}
	return models.Company{}, false
}

func (s *State) SelectedCompany() (models.Company, bool) {
	return s.Company(s.SelectedCompanyID)
}

func (s *State) Supplier(id int64) (models.Supplier, bool) {
	if i := s.supplierIndex(id); i >= 0 {
		return s.Suppliers[i], true
	}
	return models.Supplier{}, false
}

// SelectedSupplier returns the supplier the working order is addressed to.
func (s *State) SelectedSupplier() (models.Supplier, bool) {
	if s.SelectedSupplierID == 0 {
		return models.Supplier{}, false
	}
	return s.Supplier(s.SelectedSupplierID)
}

func (s *State) Product(id int64) (models.Product, bool) {
	if i := s.productIndex(id); i >= 0 {
		return s.Products[i], true
	}
	return models.Product{}, false
}

func (s *State) Order(id int64) (models.Order, bool) {
	if i := s.orderIndex(id); i >= 0 {
		return s.OrderHistory[i], true
	}
	return models.Order{}, false
}

// CompanySuppliers lists the suppliers of the given company in insertion order.
func (s *State) CompanySuppliers(companyID int64) []models.Supplier {
	out := make([]models.Supplier, 0)
	for _, sup := range s.Suppliers {
		if sup.CompanyID == companyID {
			out = append(out, sup)
		}
	}
	return out
}

// CompanyProducts lists the products of a company, narrowed to one supplier
// when supplierID is non-zero.
func (s *State) CompanyProducts(companyID, supplierID int64) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range s.Products {
		if p.CompanyID != companyID {
			continue
		}
		if supplierID != 0 && p.SupplierID != supplierID {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *State) CompanyOrders(companyID int64) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range s.OrderHistory {
		if o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	return out
}

// FindSupplierByName matches case-insensitively within one company.
func (s *State) FindSupplierByName(companyID int64, name string) (models.Supplier, bool) {
	for _, sup := range s.Suppliers {
		if sup.CompanyID == companyID && sameName(sup.Name, name) {
			return sup, true
		}
	}
	return models.Supplier{}, false
}

// FindProductByCode matches the external catalog code case-insensitively
// among the products of one supplier.
func (s *State) FindProductByCode(supplierID int64, amazonCode string) (models.Product, bool) {
	if strings.TrimSpace(amazonCode) == "" {
		return models.Product{}, false
	}
	for _, p := range s.Products {
		if p.SupplierID == supplierID && sameName(p.AmazonCode, amazonCode) {
			return p, true
		}
	}
	return models.Product{}, false
}
