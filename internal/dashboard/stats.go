package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

const recentOrderCount = 5

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MonthPoint is one month of sales; Month is YYYY-MM, Label like "Mar 2024".
type MonthPoint struct {
	Month string  `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type OrderSummary struct {
	ID           int64   `json:"id"`
	OrderNumber  string  `json:"orderNumber"`
	OrderDate    string  `json:"orderDate"`
	SupplierName string  `json:"supplierName"`
	TotalPrice   float64 `json:"totalPrice"`
	IsPaid       bool    `json:"isPaid"`
}

type Stats struct {
	CompanyID          int64          `json:"companyId"`
	TotalSuppliers     int            `json:"totalSuppliers"`
	TotalProducts      int            `json:"totalProducts"`
	TotalOrders        int            `json:"totalOrders"`
	TotalSales         float64        `json:"totalSales"`
	TotalVAT           float64        `json:"totalVat"`
	PendingOrders      int            `json:"pendingOrders"`
	PendingAmount      float64        `json:"pendingAmount"`
	OrdersPerSupplier  []ChartPoint   `json:"ordersPerSupplier"`
	ProductsBySupplier []ChartPoint   `json:"productsBySupplier"`
	MonthlySales       []MonthPoint   `json:"monthlySales"`
	RecentOrders       []OrderSummary `json:"recentOrders"`
	Unpaid             []OrderSummary `json:"unpaid"`
}

// Compute summarizes one company. VAT is 20% of total sales, the way the
// overview has always shown it, whether or not each order carried VAT.
func Compute(st *state.State, companyID int64) Stats {
	orders := st.CompanyOrders(companyID)
	suppliers := st.CompanySuppliers(companyID)
	products := st.CompanyProducts(companyID, 0)

	stats := Stats{
		CompanyID:      companyID,
		TotalSuppliers: len(suppliers),
		TotalProducts:  len(products),
		TotalOrders:    len(orders),
		Unpaid:         []OrderSummary{},
	}

	sales, pending := decimal.Zero, decimal.Zero
	perSupplier := newCounter()
	monthly := make(map[string]decimal.Decimal)
	for _, o := range orders {
		total := decimal.NewFromFloat(o.TotalPrice)
		sales = sales.Add(total)
		if !o.IsPaid {
			stats.PendingOrders++
			pending = pending.Add(total)
			stats.Unpaid = append(stats.Unpaid, summarize(o))
		}

		name := o.SupplierName
		if name == "" {
			name = "Unknown"
		}
		perSupplier.add(name, 1)

		if d, err := time.Parse(state.DateLayout, o.OrderDate); err == nil {
			key := d.Format("2006-01")
			monthly[key] = monthly[key].Add(total)
		}
	}

	stats.TotalSales = sales.Round(2).InexactFloat64()
	stats.TotalVAT = sales.Mul(state.VATRate).Round(2).InexactFloat64()
	stats.PendingAmount = pending.Round(2).InexactFloat64()
	stats.OrdersPerSupplier = perSupplier.points()

	bySupplier := newCounter()
	for _, sup := range suppliers {
		n := 0
		for _, p := range products {
			if p.SupplierID == sup.ID {
				n++
			}
		}
		bySupplier.add(sup.Name, n)
	}
	stats.ProductsBySupplier = bySupplier.points()

	stats.MonthlySales = monthSeries(monthly)
	stats.RecentOrders = recent(orders, recentOrderCount)
	return stats
}

func summarize(o models.Order) OrderSummary {
	return OrderSummary{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		OrderDate:    o.OrderDate,
		SupplierName: o.SupplierName,
		TotalPrice:   o.TotalPrice,
		IsPaid:       o.IsPaid,
	}
}

// counter keeps first-seen label order.
type counter struct {
	labels []string
	values map[string]int
}

func newCounter() *counter {
	return &counter{values: make(map[string]int)}
}

func (c *counter) add(label string, n int) {
	if _, ok := c.values[label]; !ok {
		c.labels = append(c.labels, label)
	}
	c.values[label] += n
}

func (c *counter) points() []ChartPoint {
	out := make([]ChartPoint, 0, len(c.labels))
	for _, l := range c.labels {
		out = append(out, ChartPoint{Label: l, Value: float64(c.values[l])})
	}
	return out
}

func monthSeries(monthly map[string]decimal.Decimal) []MonthPoint {
	keys := make([]string, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		d, _ := time.Parse("2006-01", k)
		out = append(out, MonthPoint{
			Month: k,
			Label: d.Format("Jan 2006"),
			Total: monthly[k].Round(2).InexactFloat64(),
		})
	}
	return out
}

// recent returns the n newest orders by order date. Orders with the same
// date keep history order.
func recent(orders []models.Order, n int) []OrderSummary {
	sorted := append([]models.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderDate > sorted[j].OrderDate
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]OrderSummary, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, summarize(o))
	}
	return out
}
