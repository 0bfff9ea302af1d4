package spreadsheet

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/reconcile"
	"supplysync-backend/internal/state"
)

// SheetName is the name of the exported worksheet.
const SheetName = "SupplySync Data"

// ExportFileName is the default download name of an export made at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("SupplySync_Export_%s.xlsx", now.Format(state.DateLayout))
}

// exportLine is one sheet row: a product with its supplier, or a supplier
// without products.
type exportLine struct {
	supplier models.Supplier
	product  *models.Product
}

func exportLines(st *state.State, companyID int64) []exportLine {
	var lines []exportLine
	for _, sup := range st.CompanySuppliers(companyID) {
		products := st.CompanyProducts(companyID, sup.ID)
		if len(products) == 0 {
			lines = append(lines, exportLine{supplier: sup})
			continue
		}
		for i := range products {
			lines = append(lines, exportLine{supplier: sup, product: &products[i]})
		}
	}
	return lines
}

// WriteExport writes the suppliers and products of one company as an xlsx
// workbook with the import column set.
func WriteExport(w io.Writer, st *state.State, companyID int64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return err
	}

	for i, h := range reconcile.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, h)
		f.SetCellStyle(SheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(SheetName, col, col, 22)
	}

	for i, line := range exportLines(st, companyID) {
		values := []any{line.supplier.Name, line.supplier.Email, line.supplier.Phone, line.supplier.Address, "", "", "", ""}
		if p := line.product; p != nil {
			values[4], values[5], values[6], values[7] = p.Title, p.Price, p.Code, p.AmazonCode
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
