package reconcile

import (
	"fmt"
	"strings"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// NoTitle replaces a missing product title on new products.
const NoTitle = "N/A"

// Analyze classifies validated rows against the selected company of st.
// Each supplier name and each supplier/catalog-code pair is looked at once,
// the first row wins. st is not modified.
func Analyze(st *state.State, rows []Row) (*ChangeSet, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}

	a := analyzer{
		st:            st,
		companyID:     st.SelectedCompanyID,
		changes:       newChangeSet(),
		seenSuppliers: make(map[string]bool),
		seenProducts:  make(map[string]bool),
		newSuppliers:  make(map[string]int),
	}
	for _, row := range rows {
		a.scan(row)
	}
	return a.changes, nil
}

type analyzer struct {
	st        *state.State
	companyID int64
	changes   *ChangeSet

	seenSuppliers map[string]bool
	seenProducts  map[string]bool
	// lower-cased name -> index in changes.NewSuppliers
	newSuppliers map[string]int
}

func (a *analyzer) scan(row Row) {
	name := row.Get(ColSupplierName)
	if name == "" {
		return
	}
	lname := strings.ToLower(name)
	existing, found := a.st.FindSupplierByName(a.companyID, name)

	if !a.seenSuppliers[lname] {
		a.seenSuppliers[lname] = true
		fields := SupplierFields{
			Name:    name,
			Email:   row.Get(ColSupplierEmail),
			Phone:   row.Get(ColSupplierPhone),
			Address: row.Get(ColSupplierAddress),
		}
		if found {
			a.supplierUpdate(existing, fields)
		} else {
			a.newSuppliers[lname] = len(a.changes.NewSuppliers)
			a.changes.NewSuppliers = append(a.changes.NewSuppliers, NewSupplier{
				Key:      "supplier:new:" + lname,
				IsNew:    true,
				Data:     fields,
				Products: []NewProduct{},
			})
		}
	}

	code := row.Get(ColAmazonCode)
	if code == "" {
		return
	}
	pkey := lname + "|" + strings.ToLower(code)
	if a.seenProducts[pkey] {
		return
	}
	a.seenProducts[pkey] = true

	var (
		product models.Product
		ok      bool
	)
	if found {
		product, ok = a.st.FindProductByCode(existing.ID, code)
	}
	if ok {
		a.productUpdate(product, name, row)
		return
	}

	np := NewProduct{
		Key:   "product:new:" + pkey,
		IsNew: true,
		Data:  newProductFields(name, code, row),
	}
	if i, isNew := a.newSuppliers[lname]; isNew {
		a.changes.NewSuppliers[i].Products = append(a.changes.NewSuppliers[i].Products, np)
		return
	}
	a.changes.NewProductsForExistingSuppliers = append(a.changes.NewProductsForExistingSuppliers, np)
}

func (a *analyzer) supplierUpdate(existing models.Supplier, f SupplierFields) {
	var patch SupplierPatch
	if changed(f.Email, existing.Email) {
		patch.Email = strPtr(f.Email)
	}
	if changed(f.Phone, existing.Phone) {
		patch.Phone = strPtr(f.Phone)
	}
	if changed(f.Address, existing.Address) {
		patch.Address = strPtr(f.Address)
	}
	if patch.empty() {
		return
	}

	data := existing
	patch.applyTo(&data)
	a.changes.UpdatedSuppliers = append(a.changes.UpdatedSuppliers, SupplierUpdate{
		Key:      fmt.Sprintf("supplier:update:%d", existing.ID),
		Data:     data,
		Original: existing,
		Patch:    patch,
	})
}

func (a *analyzer) productUpdate(existing models.Product, supplierName string, row Row) {
	var patch ProductPatch
	if title := row.Get(ColProductTitle); changed(title, existing.Title) {
		patch.Title = strPtr(title)
	}
	// a price that does not parse is not proposed
	if cell := row.Get(ColProductPrice); cell != "" {
		if price, ok := parseNumber(cell); ok && !ValuesEqual(cell, formatPrice(existing.Price), true) {
			patch.Price = &price
		}
	}
	if code := row.Get(ColProductCode); changed(code, existing.Code) {
		patch.Code = strPtr(code)
	}
	if patch.empty() {
		return
	}

	data := existing
	patch.applyTo(&data)
	a.changes.UpdatedProducts = append(a.changes.UpdatedProducts, ProductUpdate{
		Key:          fmt.Sprintf("product:update:%d", existing.ID),
		SupplierName: supplierName,
		Data:         data,
		Original:     existing,
		Patch:        patch,
	})
}

func newProductFields(supplierName, code string, row Row) ProductFields {
	title := row.Get(ColProductTitle)
	if title == "" {
		title = NoTitle
	}
	price, _ := parseNumber(row.Get(ColProductPrice))
	return ProductFields{
		SupplierName: supplierName,
		Title:        title,
		Price:        price,
		Code:         row.Get(ColProductCode),
		AmazonCode:   code,
	}
}

// changed reports a non-empty candidate that differs from the stored value.
func changed(candidate, stored string) bool {
	return candidate != "" && !ValuesEqual(candidate, stored, false)
}

func strPtr(s string) *string { return &s }
