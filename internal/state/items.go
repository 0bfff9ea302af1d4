package state

import (
	"strings"

	"supplysync-backend/internal/models"
)

// SaveSupplier creates the supplier when ID is zero, stamping the selected
// company, and otherwise replaces the stored one keeping its company.
// It returns the supplier id, or 0 when the id to update is unknown.
func (s *State) SaveSupplier(sup models.Supplier) int64 {
	if sup.ID == 0 {
		sup.ID = nextID(&s.NextIDs.Supplier, s.Suppliers, func(x models.Supplier) int64 { return x.ID })
		sup.CompanyID = s.SelectedCompanyID
		s.Suppliers = append(s.Suppliers, sup)
		return sup.ID
	}
	i := s.supplierIndex(sup.ID)
	if i < 0 {
		return 0
	}
	sup.CompanyID = s.Suppliers[i].CompanyID
	s.Suppliers[i] = sup
	return sup.ID
}

// SaveProduct follows the same create/update rule as SaveSupplier.
func (s *State) SaveProduct(p models.Product) int64 {
	if p.ID == 0 {
		p.ID = nextID(&s.NextIDs.Product, s.Products, func(x models.Product) int64 { return x.ID })
		p.CompanyID = s.SelectedCompanyID
		s.Products = append(s.Products, p)
		return p.ID
	}
	i := s.productIndex(p.ID)
	if i < 0 {
		return 0
	}
	p.CompanyID = s.Products[i].CompanyID
	s.Products[i] = p
	return p.ID
}

// SelectSupplier sets the supplier of the working order; 0 clears it.
func (s *State) SelectSupplier(id int64) {
	if id != 0 && s.supplierIndex(id) < 0 {
		return
	}
	s.SelectedSupplierID = id
}

// DeleteSupplier removes the supplier, its products and their cart lines.
func (s *State) DeleteSupplier(id int64) {
	if s.supplierIndex(id) < 0 {
		return
	}
	s.Suppliers = filter(s.Suppliers, func(sup models.Supplier) bool { return sup.ID != id })

	removed := make(map[int64]bool)
	s.Products = filter(s.Products, func(p models.Product) bool {
		if p.SupplierID == id {
			removed[p.ID] = true
			return false
		}
		return true
	})
	s.Cart = filter(s.Cart, func(it models.CartItem) bool { return !removed[it.ProductID] })

	if s.SelectedSupplierID == id {
		s.SelectedSupplierID = 0
	}
}

// DeleteProduct removes the product and any cart line pointing at it.
func (s *State) DeleteProduct(id int64) {
	if s.productIndex(id) < 0 {
		return
	}
	s.Products = filter(s.Products, func(p models.Product) bool { return p.ID != id })
	s.Cart = filter(s.Cart, func(it models.CartItem) bool { return it.ProductID != id })
}

// SearchSuppliers filters a company's suppliers by a case-insensitive term
// over name, email, phone and address.
func (s *State) SearchSuppliers(companyID int64, term string) []models.Supplier {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Supplier, 0)
	for _, sup := range s.CompanySuppliers(companyID) {
		if term == "" || containsAny(term, sup.Name, sup.Email, sup.Phone, sup.Address) {
			out = append(out, sup)
		}
	}
	return out
}

// SearchProducts filters by title, supplier code or catalog code.
func (s *State) SearchProducts(companyID, supplierID int64, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Product, 0)
	for _, p := range s.CompanyProducts(companyID, supplierID) {
		if term == "" || containsAny(term, p.Title, p.Code, p.AmazonCode) {
			out = append(out, p)
		}
	}
	return out
}

func containsAny(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
