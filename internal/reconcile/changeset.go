package reconcile

import "supplysync-backend/internal/models"

// SupplierFields are the supplier columns of an import row.
type SupplierFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ProductFields are the product columns of an import row.
type ProductFields struct {
	SupplierName string  `json:"supplierName"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Code         string  `json:"code"`
	AmazonCode   string  `json:"amazonCode"`
}

// NewSupplier is a supplier unknown to the selected company, with the new
// products found for it in the same file.
type NewSupplier struct {
	Key      string         `json:"key"`
	IsNew    bool           `json:"isNew"`
	Data     SupplierFields `json:"data"`
	Products []NewProduct   `json:"products"`
}

type NewProduct struct {
	Key   string        `json:"key"`
	IsNew bool          `json:"isNew"`
	Data  ProductFields `json:"data"`
}

// SupplierPatch holds the fields that differ; nil means unchanged.
type SupplierPatch struct {
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (p SupplierPatch) empty() bool {
	return p.Email == nil && p.Phone == nil && p.Address == nil
}

func (p SupplierPatch) applyTo(s *models.Supplier) {
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
}

type SupplierUpdate struct {
	Key      string          `json:"key"`
	IsNew    bool            `json:"isNew"`
	Data     models.Supplier `json:"data"`
	Original models.Supplier `json:"original"`
	Patch    SupplierPatch   `json:"patch"`
}

type ProductPatch struct {
	Title *string  `json:"title,omitempty"`
	Price *float64 `json:"price,omitempty"`
	Code  *string  `json:"code,omitempty"`
}

func (p ProductPatch) empty() bool {
	return p.Title == nil && p.Price == nil && p.Code == nil
}

func (p ProductPatch) applyTo(prod *models.Product) {
	if p.Title != nil {
		prod.Title = *p.Title
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Code != nil {
		prod.Code = *p.Code
	}
}

type ProductUpdate struct {
	Key          string         `json:"key"`
	IsNew        bool           `json:"isNew"`
	SupplierName string         `json:"supplierName"`
	Data         models.Product `json:"data"`
	Original     models.Product `json:"original"`
	Patch        ProductPatch   `json:"patch"`
}

// ChangeSet is the reviewable result of Analyze.
type ChangeSet struct {
	NewSuppliers                    []NewSupplier    `json:"newSuppliers"`
	UpdatedSuppliers                []SupplierUpdate `json:"updatedSuppliers"`
	NewProductsForExistingSuppliers []NewProduct     `json:"newProductsForExistingSuppliers"`
	UpdatedProducts                 []ProductUpdate  `json:"updatedProducts"`
}

func newChangeSet() *ChangeSet {
	return &ChangeSet{
		NewSuppliers:                    []NewSupplier{},
		UpdatedSuppliers:                []SupplierUpdate{},
		NewProductsForExistingSuppliers: []NewProduct{},
		UpdatedProducts:                 []ProductUpdate{},
	}
}

// Empty reports whether the import found nothing to do.
func (c *ChangeSet) Empty() bool {
	return len(c.NewSuppliers) == 0 && len(c.UpdatedSuppliers) == 0 &&
		len(c.NewProductsForExistingSuppliers) == 0 && len(c.UpdatedProducts) == 0
}

// Keys lists every candidate key, nested products included, in review order.
func (c *ChangeSet) Keys() []string {
	var keys []string
	for _, s := range c.NewSuppliers {
		keys = append(keys, s.Key)
		for _, p := range s.Products {
			keys = append(keys, p.Key)
		}
	}
	for _, s := range c.UpdatedSuppliers {
		keys = append(keys, s.Key)
	}
	for _, p := range c.NewProductsForExistingSuppliers {
		keys = append(keys, p.Key)
	}
	for _, p := range c.UpdatedProducts {
		keys = append(keys, p.Key)
	}
	return keys
}

// Selection is the reviewer's choice. Every candidate starts checked;
// Unchecked lists the keys to leave out.
type Selection struct {
	Unchecked []string `json:"unchecked"`
}

// SelectAll checks every candidate.
func SelectAll() Selection {
	return Selection{}
}

func (s Selection) checked(key string) bool {
	for _, k := range s.Unchecked {
		if k == key {
			return false
		}
	}
	return true
}
