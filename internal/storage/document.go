package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// document is the persisted shape of a workspace.
type document struct {
	Companies          []models.Company    `json:"companies"`
	SelectedCompanyID  int64               `json:"selectedCompanyId"`
	Suppliers          []models.Supplier   `json:"suppliers"`
	Products           []models.Product    `json:"products"`
	OrderHistory       []models.Order      `json:"orderHistory"`
	Cart               []models.CartItem   `json:"cart"`
	VATEnabled         bool                `json:"vatEnabled"`
	OrderDetails       models.OrderDetails `json:"orderDetails"`
	SelectedSupplierID *int64              `json:"selectedSupplierId"`
	NextIDs            state.IDCounters    `json:"nextIds"`
}

// Encode serializes the persisted subset of st.
func Encode(st *state.State) ([]byte, error) {
	doc := document{
		Companies:         st.Companies,
		SelectedCompanyID: st.SelectedCompanyID,
		Suppliers:         st.Suppliers,
		Products:          st.Products,
		OrderHistory:      st.OrderHistory,
		Cart:              st.Cart,
		VATEnabled:        st.VATEnabled,
		OrderDetails:      st.OrderDetails,
		NextIDs:           st.NextIDs,
	}
	if st.SelectedSupplierID != 0 {
		id := st.SelectedSupplierID
		doc.SelectedSupplierID = &id
	}
	return json.Marshal(doc)
}

type rawCompany struct {
	ID      looseString `json:"id"`
	Name    looseString `json:"name"`
	Address looseString `json:"address"`
	Email   looseString `json:"email"`
	Phone   looseString `json:"phone"`
	Website looseString `json:"website"`
}

type rawSupplier struct {
	ID        looseString `json:"id"`
	CompanyID looseString `json:"companyId"`
	Company   looseString `json:"company"`
	Name      looseString `json:"name"`
	Email     looseString `json:"email"`
	Phone     looseString `json:"phone"`
	Address   looseString `json:"address"`
	Notes     looseString `json:"notes"`
	Photo     looseString `json:"photo"`
}

type rawProduct struct {
	ID         looseString `json:"id"`
	CompanyID  looseString `json:"companyId"`
	Company    looseString `json:"company"`
	SupplierID looseString `json:"supplierId"`
	Title      looseString `json:"title"`
	Price      looseNumber `json:"price"`
	Code       looseString `json:"code"`
	AmazonCode looseString `json:"amazonCode"`
	Desc       looseString `json:"desc"`
	Photo      looseString `json:"photo"`
}

type rawItem struct {
	ProductID looseString `json:"productId"`
	Quantity  looseNumber `json:"quantity"`
}

type rawOrder struct {
	ID            looseString `json:"id"`
	CompanyID     looseString `json:"companyId"`
	Company       looseString `json:"company"`
	SupplierID    looseString `json:"supplierId"`
	SupplierName  looseString `json:"supplierName"`
	OrderNumber   looseString `json:"orderNumber"`
	OrderDate     looseString `json:"orderDate"`
	PaymentMethod looseString `json:"paymentMethod"`
	IsPaid        bool        `json:"isPaid"`
	TotalPrice    looseNumber `json:"totalPrice"`
	Items         []rawItem   `json:"items"`
}

type rawOrderDetails struct {
	OrderNumber   looseString `json:"orderNumber"`
	OrderDate     looseString `json:"orderDate"`
	PaymentMethod looseString `json:"paymentMethod"`
	IsPaid        bool        `json:"isPaid"`
}

// rawDocument accepts every document shape written so far.
type rawDocument struct {
	Companies          []json.RawMessage `json:"companies"`
	SelectedCompanyID  looseString       `json:"selectedCompanyId"`
	SelectedCompany    looseString       `json:"selectedCompany"` // legacy: a company name
	Suppliers          []rawSupplier     `json:"suppliers"`
	Products           []rawProduct      `json:"products"`
	OrderHistory       []rawOrder        `json:"orderHistory"`
	Cart               []rawItem         `json:"cart"`
	VATEnabled         bool              `json:"vatEnabled"`
	OrderDetails       *rawOrderDetails  `json:"orderDetails"`
	SelectedSupplierID looseString       `json:"selectedSupplierId"`
	NextIDs            *state.IDCounters `json:"nextIds"` // absent before id counters existed
}

// Decode rebuilds a workspace from a stored document, migrating older
// shapes. today fills in missing order details.
func Decode(data []byte, today time.Time) (*state.State, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	return raw.toState(today)
}

func (d *rawDocument) toState(today time.Time) (*state.State, error) {
	st := state.New(today)
	m := migration{companyIDs: map[string]int64{}}

	if err := m.companies(st, d); err != nil {
		return nil, err
	}
	m.records(st, d.Suppliers, d.Products, d.OrderHistory)

	st.Cart = []models.CartItem{}
	for _, it := range d.Cart {
		pid, ok := m.productIDs[it.ProductID.String()]
		qty := quantity(it.Quantity)
		if !ok || qty <= 0 {
			continue
		}
		st.Cart = append(st.Cart, models.CartItem{ProductID: pid, Quantity: qty})
	}

	st.VATEnabled = d.VATEnabled
	if od := d.OrderDetails; od != nil {
		st.OrderDetails = models.OrderDetails{
			OrderNumber:   od.OrderNumber.String(),
			OrderDate:     od.OrderDate.String(),
			PaymentMethod: od.PaymentMethod.String(),
			IsPaid:        od.IsPaid,
		}
		if st.OrderDetails.OrderDate == "" {
			st.OrderDetails.OrderDate = today.Format(state.DateLayout)
		}
		if st.OrderDetails.PaymentMethod == "" {
			st.OrderDetails.PaymentMethod = models.DefaultPaymentMethod
		}
	}

	if id, ok := m.supplierIDs[d.SelectedSupplierID.String()]; ok {
		if sup, found := st.Supplier(id); found && sup.CompanyID == st.SelectedCompanyID {
			st.SelectedSupplierID = id
		}
	}

	if d.NextIDs != nil {
		st.NextIDs = *d.NextIDs
	}
	st.SeedIDs()
	return st, nil
}

type migration struct {
	companyIDs  map[string]int64
	supplierIDs map[string]int64
	productIDs  map[string]int64
}

func (m *migration) companies(st *state.State, d *rawDocument) error {
	if len(d.Companies) == 0 {
		return nil
	}

	legacy := strings.HasPrefix(strings.TrimSpace(string(d.Companies[0])), `"`)
	list := make([]rawCompany, len(d.Companies))
	tokens := make([]looseString, len(d.Companies))
	for i, rc := range d.Companies {
		if strings.HasPrefix(strings.TrimSpace(string(rc)), `"`) {
			// legacy entry: just the company name
			if err := json.Unmarshal(rc, &list[i].Name); err != nil {
				return fmt.Errorf("decode company %d: %w", i, err)
			}
		} else if err := json.Unmarshal(rc, &list[i]); err != nil {
			return fmt.Errorf("decode company %d: %w", i, err)
		}
		if !legacy {
			tokens[i] = list[i].ID
		}
	}

	ids, byToken := renumber(tokens)
	if legacy {
		for i, id := range ids {
			byToken[strconv.Itoa(i+1)] = id
		}
	}
	m.companyIDs = byToken
	st.Companies = make([]models.Company, len(list))
	for i, c := range list {
		st.Companies[i] = models.Company{
			ID:      ids[i],
			Name:    c.Name.String(),
			Address: c.Address.String(),
			Email:   c.Email.String(),
			Phone:   c.Phone.String(),
			Website: c.Website.String(),
		}
	}

	st.SelectedCompanyID = m.defaultCompany(st)
	if legacy {
		if id, ok := m.companyByName(st, d.SelectedCompany.String()); ok {
			st.SelectedCompanyID = id
		}
	} else if id, ok := byToken[d.SelectedCompanyID.String()]; ok {
		st.SelectedCompanyID = id
	}
	return nil
}

// defaultCompany is company 1 when present, else the first one.
func (m *migration) defaultCompany(st *state.State) int64 {
	if _, ok := st.Company(1); ok {
		return 1
	}
	return st.Companies[0].ID
}

func (m *migration) companyByName(st *state.State, name string) (int64, bool) {
	if name == "" {
		return 0, false
	}
	for _, c := range st.Companies {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

// companyOf resolves a record's company from its id, or from the legacy
// company name when the id is missing.
func (m *migration) companyOf(st *state.State, id, legacyName looseString) int64 {
	if id.String() != "" {
		if cid, ok := m.companyIDs[id.String()]; ok {
			return cid
		}
	}
	if cid, ok := m.companyByName(st, legacyName.String()); ok {
		return cid
	}
	return m.defaultCompany(st)
}

func (m *migration) records(st *state.State, suppliers []rawSupplier, products []rawProduct, orders []rawOrder) {
	tokens := make([]looseString, len(suppliers))
	for i, s := range suppliers {
		tokens[i] = s.ID
	}
	ids, byToken := renumber(tokens)
	m.supplierIDs = byToken
	st.Suppliers = make([]models.Supplier, len(suppliers))
	for i, s := range suppliers {
		st.Suppliers[i] = models.Supplier{
			ID:        ids[i],
			CompanyID: m.companyOf(st, s.CompanyID, s.Company),
			Name:      s.Name.String(),
			Email:     s.Email.String(),
			Phone:     s.Phone.String(),
			Address:   s.Address.String(),
			Notes:     s.Notes.String(),
			Photo:     s.Photo.String(),
		}
	}

	tokens = make([]looseString, len(products))
	for i, p := range products {
		tokens[i] = p.ID
	}
	ids, byToken = renumber(tokens)
	m.productIDs = byToken
	st.Products = make([]models.Product, len(products))
	for i, p := range products {
		st.Products[i] = models.Product{
			ID:         ids[i],
			CompanyID:  m.companyOf(st, p.CompanyID, p.Company),
			SupplierID: m.supplierIDs[p.SupplierID.String()],
			Title:      p.Title.String(),
			Price:      float64(p.Price),
			Code:       p.Code.String(),
			AmazonCode: p.AmazonCode.String(),
			Desc:       p.Desc.String(),
			Photo:      p.Photo.String(),
		}
	}

	tokens = make([]looseString, len(orders))
	for i, o := range orders {
		tokens[i] = o.ID
	}
	ids, _ = renumber(tokens)
	st.OrderHistory = make([]models.Order, len(orders))
	for i, o := range orders {
		items := make([]models.OrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, models.OrderItem{
				ProductID: m.productIDs[it.ProductID.String()],
				Quantity:  quantity(it.Quantity),
			})
		}
		st.OrderHistory[i] = models.Order{
			ID:            ids[i],
			CompanyID:     m.companyOf(st, o.CompanyID, o.Company),
			SupplierID:    m.supplierIDs[o.SupplierID.String()],
			SupplierName:  o.SupplierName.String(),
			OrderNumber:   o.OrderNumber.String(),
			OrderDate:     o.OrderDate.String(),
			PaymentMethod: o.PaymentMethod.String(),
			IsPaid:        o.IsPaid,
			TotalPrice:    float64(o.TotalPrice),
			Items:         items,
		}
	}
}

func quantity(n looseNumber) int {
	return int(math.Round(float64(n)))
}
