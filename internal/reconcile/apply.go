package reconcile

import (
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// Summary counts what Apply actually changed.
type Summary struct {
	NewSuppliers     int `json:"newSuppliers"`
	UpdatedSuppliers int `json:"updatedSuppliers"`
	NewProducts      int `json:"newProducts"`
	UpdatedProducts  int `json:"updatedProducts"`
}

func (s Summary) Total() int {
	return s.NewSuppliers + s.UpdatedSuppliers + s.NewProducts + s.UpdatedProducts
}

// Apply writes the checked candidates of cs into the selected company of st.
// Products nested under an unchecked new supplier are skipped with it.
// Records that already exist are left alone, so applying the same change
// set twice creates nothing the second time.
func Apply(st *state.State, cs *ChangeSet, sel Selection) Summary {
	var sum Summary
	companyID := st.SelectedCompanyID

	var products []NewProduct
	for _, ns := range cs.NewSuppliers {
		if !sel.checked(ns.Key) {
			continue
		}
		for _, p := range ns.Products {
			if sel.checked(p.Key) {
				products = append(products, p)
			}
		}
		if _, exists := st.FindSupplierByName(companyID, ns.Data.Name); exists {
			continue
		}
		st.SaveSupplier(models.Supplier{
			Name:    ns.Data.Name,
			Email:   ns.Data.Email,
			Phone:   ns.Data.Phone,
			Address: ns.Data.Address,
		})
		sum.NewSuppliers++
	}

	for _, up := range cs.UpdatedSuppliers {
		if !sel.checked(up.Key) {
			continue
		}
		cur, ok := st.Supplier(up.Original.ID)
		if !ok {
			continue
		}
		up.Patch.applyTo(&cur)
		st.SaveSupplier(cur)
		sum.UpdatedSuppliers++
	}

	for _, p := range cs.NewProductsForExistingSuppliers {
		if sel.checked(p.Key) {
			products = append(products, p)
		}
	}
	for _, p := range products {
		sup, ok := st.FindSupplierByName(companyID, p.Data.SupplierName)
		if !ok {
			continue
		}
		if _, dup := st.FindProductByCode(sup.ID, p.Data.AmazonCode); dup {
			continue
		}
		st.SaveProduct(models.Product{
			SupplierID: sup.ID,
			Title:      p.Data.Title,
			Price:      p.Data.Price,
			Code:       p.Data.Code,
			AmazonCode: p.Data.AmazonCode,
		})
		sum.NewProducts++
	}

	for _, up := range cs.UpdatedProducts {
		if !sel.checked(up.Key) {
			continue
		}
		cur, ok := st.Product(up.Original.ID)
		if !ok {
			continue
		}
		up.Patch.applyTo(&cur)
		st.SaveProduct(cur)
		sum.UpdatedProducts++
	}
	return sum
}
