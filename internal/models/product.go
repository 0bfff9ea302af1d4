package models

type Product struct {
	ID         int64   `json:"id"`
	CompanyID  int64   `json:"companyId"`
	SupplierID int64   `json:"supplierId"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Code       string  `json:"code"`       // supplier SKU
	AmazonCode string  `json:"amazonCode"` // external catalog code
	Desc       string  `json:"desc"`
	Photo      string  `json:"photo,omitempty"` // data: URL
}
