package state

import (
	"errors"

	"supplysync-backend/internal/models"
)

// ErrLastCompany is returned when deleting the only remaining company.
var ErrLastCompany = errors.New("you cannot delete the only company")

// AddCompany appends a company under a fresh id and selects it.
func (s *State) AddCompany(c models.Company) int64 {
	c.ID = nextID(&s.NextIDs.Company, s.Companies, func(c models.Company) int64 { return c.ID })
	s.Companies = append(s.Companies, c)
	s.SelectCompany(c.ID)
	return c.ID
}

// UpdateCompany replaces the stored fields of an existing company.
func (s *State) UpdateCompany(c models.Company) bool {
	i := s.companyIndex(c.ID)
	if i < 0 {
		return false
	}
	s.Companies[i] = c
	return true
}

// SelectCompany switches scope. Cart and supplier selection are company
// scoped and are reset.
func (s *State) SelectCompany(id int64) {
	if s.companyIndex(id) < 0 {
		return
	}
	s.selectCompany(id)
}

func (s *State) selectCompany(id int64) {
	s.SelectedCompanyID = id
	s.SelectedSupplierID = 0
	s.Cart = []models.CartItem{}
}

// DeleteCompany removes a company with its suppliers, products and orders.
func (s *State) DeleteCompany(id int64) error {
	i := s.companyIndex(id)
	if i < 0 {
		return nil
	}
	if len(s.Companies) == 1 {
		return ErrLastCompany
	}

	s.Suppliers = filter(s.Suppliers, func(sup models.Supplier) bool { return sup.CompanyID != id })
	s.Products = filter(s.Products, func(p models.Product) bool { return p.CompanyID != id })
	s.OrderHistory = filter(s.OrderHistory, func(o models.Order) bool { return o.CompanyID != id })
	s.Companies = append(s.Companies[:i:i], s.Companies[i+1:]...)

	if s.SelectedCompanyID == id {
		s.selectCompany(s.Companies[0].ID)
	}
	return nil
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
