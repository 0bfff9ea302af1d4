package pdf

import (
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindText Kind = iota
	KindLine
)

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Element is one drawing instruction. Y is the text baseline in mm.
type Element struct {
	Kind  Kind
	Page  int
	X, Y  float64
	X2    float64 // line end
	Text  string
	Size  float64
	Bold  bool
	Align Align
	Color [3]int
}

const (
	fontFamily = "Helvetica"
	marginLeft = 14.0
	rightEdge  = 196.0
	pageBottom = 275.0
	lineHeight = 7.0
)

var (
	green = [3]int{52, 199, 89}
	red   = [3]int{255, 59, 48}
)

type layout struct {
	measure *gofpdf.Fpdf
	page    int
	y       float64
	out     []Element
}

func (l *layout) text(x float64, txt string, size float64, bold bool, align Align) {
	l.out = append(l.out, Element{Kind: KindText, Page: l.page, X: x, Y: l.y, Text: txt, Size: size, Bold: bold, Align: align})
}

func (l *layout) colored(x float64, txt string, size float64, color [3]int) {
	l.out = append(l.out, Element{Kind: KindText, Page: l.page, X: x, Y: l.y, Text: txt, Size: size, Bold: true, Align: AlignLeft, Color: color})
}

func (l *layout) rule() {
	l.out = append(l.out, Element{Kind: KindLine, Page: l.page, X: marginLeft, Y: l.y, X2: rightEdge})
}

// wrap splits txt to fit width at the given font size.
func (l *layout) wrap(txt string, width, size float64) []string {
	if txt == "" {
		return []string{""}
	}
	l.measure.SetFont(fontFamily, "", size)
	parts := l.measure.SplitText(txt, width)
	if len(parts) == 0 {
		return []string{txt}
	}
	return parts
}

func (l *layout) ensureRoom(h float64) {
	if l.y+h > pageBottom {
		l.page++
		l.y = 20
	}
}

// Layout positions every element of the purchase order on A4 pages.
func Layout(po PurchaseOrder) []Element {
	l := &layout{measure: gofpdf.New("P", "mm", "A4", ""), y: 20}

	companyName := "Purchase Order"
	if po.Company != nil && po.Company.Name != "" {
		companyName = po.Company.Name
	}
	l.text(marginLeft, companyName, 18, true, AlignLeft)
	if c := po.Company; c != nil {
		if c.Address != "" {
			l.y += 6
			l.text(marginLeft, c.Address, 10, false, AlignLeft)
		}
		if c.Email != "" || c.Phone != "" {
			l.y += 5
			l.text(marginLeft, c.Email+" | "+c.Phone, 10, false, AlignLeft)
		}
		if c.Website != "" {
			l.y += 5
			l.text(marginLeft, c.Website, 10, false, AlignLeft)
		}
	}
	l.y += 10

	title := "Purchase Order"
	if po.Reprint {
		title = "Purchase Order (Reprint)"
	}
	l.text(105, title, 18, false, AlignCenter)
	l.y += 15

	l.text(marginLeft, "Supplier Details:", 12, true, AlignLeft)
	l.y += lineHeight
	if s := po.Supplier; s != nil {
		if s.Name != "" {
			l.text(marginLeft, "Name: "+s.Name, 12, false, AlignLeft)
			l.y += lineHeight
		}
		if s.Address != "" {
			for _, part := range l.wrap("Address: "+s.Address, 180, 12) {
				l.text(marginLeft, part, 12, false, AlignLeft)
				l.y += lineHeight
			}
		}
		if s.Email != "" {
			l.text(marginLeft, "Email: "+s.Email, 12, false, AlignLeft)
			l.y += lineHeight
		}
		if s.Phone != "" {
			l.text(marginLeft, "Phone: "+s.Phone, 12, false, AlignLeft)
			l.y += lineHeight
		}
	} else {
		l.text(marginLeft, "No supplier selected.", 12, false, AlignLeft)
		l.y += lineHeight
	}
	l.y += 5

	d := po.Details
	l.text(marginLeft, "Order #: "+d.OrderNumber, 12, false, AlignLeft)
	l.text(140, "Date: "+d.OrderDate, 12, false, AlignLeft)
	l.y += lineHeight
	payment := d.PaymentMethod
	if payment == "" {
		payment = "N/A"
	}
	l.text(marginLeft, "Payment: "+payment, 12, false, AlignLeft)
	l.text(140, "Status:", 12, true, AlignLeft)
	if d.IsPaid {
		l.colored(158, "PAID", 12, green)
	} else {
		l.colored(158, "UNPAID", 12, red)
	}
	l.y += 15

	l.tableHeader()
	for _, line := range po.Lines {
		titles := l.wrap(line.Product.Title, 60, 12)
		codes := l.wrap(line.Product.Code, 35, 12)
		external := l.wrap(line.Product.AmazonCode, 35, 12)
		rows := max(len(titles), len(codes), len(external))

		h := float64(rows)*lineHeight + 3
		if l.y+h > pageBottom {
			l.ensureRoom(h)
			l.tableHeader()
		}
		start := l.y
		for i := 0; i < rows; i++ {
			l.y = start + float64(i)*lineHeight
			if i < len(titles) {
				l.text(marginLeft, titles[i], 12, false, AlignLeft)
			}
			if i < len(codes) {
				l.text(75, codes[i], 12, false, AlignLeft)
			}
			if i < len(external) {
				l.text(110, external[i], 12, false, AlignLeft)
			}
		}
		l.y = start
		l.text(147, strconv.Itoa(line.Quantity), 12, false, AlignCenter)
		l.text(175, money(decimal.NewFromFloat(line.Product.Price)), 12, false, AlignRight)
		l.text(rightEdge, money(line.Total), 12, false, AlignRight)
		l.y = start + h
	}

	l.ensureRoom(4 * lineHeight)
	l.rule()
	l.y += lineHeight
	l.text(140, "Net Total:", 12, true, AlignLeft)
	l.text(rightEdge, money(po.Totals.Net), 12, true, AlignRight)
	l.y += lineHeight
	if po.ShowVAT {
		l.text(140, "VAT (20%):", 12, true, AlignLeft)
		l.text(rightEdge, money(po.Totals.VAT), 12, true, AlignRight)
		l.y += lineHeight
	}
	l.text(140, "Grand Total:", 14, true, AlignLeft)
	l.text(rightEdge, money(po.Totals.Grand), 14, true, AlignRight)
	return l.out
}

func (l *layout) tableHeader() {
	l.text(marginLeft, "Item Title", 12, true, AlignLeft)
	l.text(75, "Supplier Code", 12, true, AlignLeft)
	l.text(110, "Amazon Code", 12, true, AlignLeft)
	l.text(145, "Qty", 12, true, AlignLeft)
	l.text(175, "Unit Price", 12, true, AlignRight)
	l.text(rightEdge, "Net Total", 12, true, AlignRight)
	l.y += 5
	l.rule()
	l.y += 6
}

func money(d decimal.Decimal) string {
	return fmt.Sprintf("$%s", d.StringFixed(2))
}
