package pdf

import (
	"bytes"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Render draws the layout of po into a PDF. created is stamped as the
// document creation date so equal inputs give equal output.
func Render(po PurchaseOrder, created time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(created)
	pdf.SetTitle("Purchase Order "+po.Details.OrderNumber, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := -1
	for _, el := range Layout(po) {
		for page < el.Page {
			pdf.AddPage()
			page++
		}
		switch el.Kind {
		case KindLine:
			pdf.SetDrawColor(0, 0, 0)
			pdf.SetLineWidth(0.2)
			pdf.Line(el.X, el.Y, el.X2, el.Y)
		case KindText:
			style := ""
			if el.Bold {
				style = "B"
			}
			pdf.SetFont(fontFamily, style, el.Size)
			pdf.SetTextColor(el.Color[0], el.Color[1], el.Color[2])

			txt := tr(el.Text)
			x := el.X
			switch el.Align {
			case AlignRight:
				x -= pdf.GetStringWidth(txt)
			case AlignCenter:
				x -= pdf.GetStringWidth(txt) / 2
			}
			pdf.Text(x, el.Y, txt)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
