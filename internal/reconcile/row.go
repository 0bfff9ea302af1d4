// Package reconcile diffs imported spreadsheet rows against a workspace and
// applies the reviewed result.
//
// The flow is Validate, then Analyze to build a ChangeSet, then Apply with
// the reviewer's Selection. Nothing is mutated before Apply.
package reconcile

import "strings"

// Column headers shared by import and export.
const (
	ColSupplierName    = "Supplier Name"
	ColSupplierEmail   = "Supplier Email"
	ColSupplierPhone   = "Supplier Phone"
	ColSupplierAddress = "Supplier Address"
	ColProductTitle    = "Product Title"
	ColProductPrice    = "Product Price"
	ColProductCode     = "Product Code (Supplier)"
	ColAmazonCode      = "Amazon Code"
)

// Columns lists the headers in sheet order.
var Columns = []string{
	ColSupplierName,
	ColSupplierEmail,
	ColSupplierPhone,
	ColSupplierAddress,
	ColProductTitle,
	ColProductPrice,
	ColProductCode,
	ColAmazonCode,
}

// Row is one data line of an imported sheet keyed by column header.
type Row map[string]string

// Get returns the trimmed cell, empty when the column is missing.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}
