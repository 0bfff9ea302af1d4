package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/database"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/storage"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	reg *workspace.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppEnv:         "test",
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		JWTTTL:         time.Hour,
		CORSOrigins:    "http://localhost:5173",
		MaxUploadBytes: 1 << 20,
		PhotoMaxBytes:  64 << 10,
	}
	reg := workspace.NewRegistry(storage.NewAdapter(storage.NewGormStore(db), log), log)
	return &testServer{
		app: New(Deps{Config: cfg, DB: db, Registry: reg, Log: log}),
		db:  db,
		reg: reg,
	}
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// call sends a JSON request and decodes a JSON answer into out when given.
func (s *testServer) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := s.send(t, req, token)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) upload(t *testing.T, path, token, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.send(t, req, token)
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	status := s.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Dana Reyes",
		"email":     email,
		"password":  "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var out struct {
		Token string `json:"token"`
	}
	status = s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret1",
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthAndAuthRequired(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	var errBody map[string]string
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/api/state", "", nil, &errBody))
	assert.NotEmpty(t, errBody["error"])
}

func TestFreshWorkspaceHasDefaultCompany(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	var st StateResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/state", token, nil, &st))
	require.Len(t, st.Companies, 1)
	assert.Equal(t, models.DefaultCompany().Name, st.Companies[0].Name)
	assert.Equal(t, st.Companies[0].ID, st.SelectedCompanyID)
	assert.Empty(t, st.Cart.Items)
	assert.Nil(t, st.Cart.EditingOrderID)
	assert.False(t, st.HasPendingImport)
}

func TestOrderWorkflow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	var sup models.Supplier
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/suppliers", token,
		map[string]any{"name": "Acme Supplies", "email": "sales@acme.test"}, &sup))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, fmt.Sprintf("/api/suppliers/%d/select", sup.ID), token, nil, nil))

	var widget, bolt models.Product
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/products", token,
		map[string]any{"title": "Widget", "price": 2.5, "code": "W-1"}, &widget))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/products", token,
		map[string]any{"title": "Bolt", "price": 1.25}, &bolt))
	assert.Equal(t, sup.ID, widget.SupplierID)

	var cart struct {
		Items  []map[string]any `json:"items"`
		Totals struct {
			Net   float64 `json:"net"`
			VAT   float64 `json:"vat"`
			Grand float64 `json:"grand"`
		} `json:"totals"`
		EditingOrderID *int64 `json:"editingOrderId"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": widget.ID}, nil))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": widget.ID}, nil))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/cart/items", token, map[string]any{"productId": bolt.ID}, &cart))
	assert.Len(t, cart.Items, 2)
	assert.InDelta(t, 6.25, cart.Totals.Net, 0.001)
	assert.InDelta(t, 6.25, cart.Totals.Grand, 0.001)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/api/order/vat", token, map[string]any{"enabled": true}, &cart))
	assert.InDelta(t, 1.25, cart.Totals.VAT, 0.001)
	assert.InDelta(t, 7.5, cart.Totals.Grand, 0.001)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPatch, "/api/order/details", token,
		map[string]any{"orderNumber": "PO-100", "orderDate": "2024-03-05"}, nil))

	resp := s.send(t, httptest.NewRequest(http.MethodGet, "/api/cart/pdf", nil), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Order_PO-100_")
	resp.Body.Close()

	var placed struct {
		Order   models.Order `json:"order"`
		Updated bool         `json:"updated"`
	}
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/orders", token, nil, &placed))
	assert.False(t, placed.Updated)
	assert.Equal(t, "PO-100", placed.Order.OrderNumber)
	assert.Equal(t, "Acme Supplies", placed.Order.SupplierName)
	assert.InDelta(t, 7.5, placed.Order.TotalPrice, 0.001)

	// the cart is empty now
	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPost, "/api/orders", token, nil, &errBody))
	assert.Equal(t, "Your cart is empty. Please add items before placing an order.", errBody["error"])

	// edit: drop the bolt and save over the same order
	editPath := fmt.Sprintf("/api/orders/%d/edit", placed.Order.ID)
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, editPath, token, nil, &cart))
	require.NotNil(t, cart.EditingOrderID)
	assert.Equal(t, placed.Order.ID, *cart.EditingOrderID)
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPatch, fmt.Sprintf("/api/cart/items/%d", bolt.ID), token,
		map[string]any{"delta": -1}, &cart))
	assert.Len(t, cart.Items, 1)

	var updated struct {
		Order   models.Order `json:"order"`
		Updated bool         `json:"updated"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/orders", token, nil, &updated))
	assert.True(t, updated.Updated)
	assert.Equal(t, placed.Order.ID, updated.Order.ID)
	assert.InDelta(t, 6.0, updated.Order.TotalPrice, 0.001)

	var orders []models.Order
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/orders?supplier_id=0", token, nil, &orders))
	require.Len(t, orders, 1)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/paid", placed.Order.ID), token,
		map[string]any{"isPaid": true}, nil))

	resp = s.send(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%d/pdf", placed.Order.ID), nil), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Reprint_Order_PO-100_")
	resp.Body.Close()

	var stats struct {
		TotalOrders   int     `json:"totalOrders"`
		TotalSales    float64 `json:"totalSales"`
		PendingOrders int     `json:"pendingOrders"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/dashboard", token, nil, &stats))
	assert.Equal(t, 1, stats.TotalOrders)
	assert.InDelta(t, 6.0, stats.TotalSales, 0.001)
	assert.Zero(t, stats.PendingOrders)

	var logs []map[string]any
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/audit-logs?entity_type=order", token, nil, &logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, "Dana Reyes", logs[0]["user_name"])
	assert.Equal(t, "update", logs[0]["action"])

	require.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, fmt.Sprintf("/api/orders/%d", placed.Order.ID), token, nil, nil))
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/orders?supplier_id=0", token, nil, &orders))
	assert.Empty(t, orders)
}

func TestWorkspaceSurvivesRestart(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/companies", token,
		map[string]any{"name": "Northwind"}, nil))

	// drop the in-memory copy; the next request reloads from the database
	var me struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/auth/me", token, nil, &me))
	s.reg.Evict(me.ID)

	var list struct {
		Companies []models.Company `json:"companies"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/companies", token, nil, &list))
	require.Len(t, list.Companies, 2)
	assert.Equal(t, "Northwind", list.Companies[1].Name)
}

func TestImportReviewAndApply(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	csv := strings.Join([]string{
		"Supplier Name,Supplier Email,Supplier Phone,Supplier Address,Product Title,Product Price,Product Code (Supplier),Amazon Code",
		"Acme Supplies,sales@acme.test,555-0100,1 Main St,Widget,2.50,W-1,B000W1",
		"Acme Supplies,sales@acme.test,555-0100,1 Main St,Bolt,1.25,B-1,B000B1",
	}, "\n")

	resp := s.upload(t, "/api/import", token, "catalog.csv", []byte(csv), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	resp.Body.Close()
	assert.Positive(t, pending.Count)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/import/pending", token, nil, nil))

	var applied struct {
		Message string `json:"message"`
		Summary struct {
			NewSuppliers int `json:"newSuppliers"`
			NewProducts  int `json:"newProducts"`
		} `json:"summary"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/api/import/apply", token, nil, &applied))
	assert.Equal(t, "Import successful!", applied.Message)
	assert.Equal(t, 1, applied.Summary.NewSuppliers)
	assert.Equal(t, 2, applied.Summary.NewProducts)

	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/api/import/pending", token, nil, nil))

	// the same file again has nothing new
	resp = s.upload(t, "/api/import", token, "catalog.csv", []byte(csv), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&again))
	resp.Body.Close()
	assert.Equal(t, "No new data or changes found to import.", again["message"])

	resp = s.send(t, httptest.NewRequest(http.MethodGet, "/api/export", nil), token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "SupplySync_Export_")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip archive")
}

func TestImportRejectsUnsupportedFile(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	resp := s.upload(t, "/api/import", token, "notes.txt", []byte("hello"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportValidationFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	csv := "Supplier Name,Product Title,Amazon Code\nAcme Supplies,Widget,\n"
	resp := s.upload(t, "/api/import", token, "catalog.csv", []byte(csv), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errBody map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Contains(t, errBody["error"], "Amazon Code")

	var st StateResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/state", token, nil, &st))
	assert.False(t, st.HasPendingImport)
	assert.Empty(t, st.Suppliers)
}

func TestBackupRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/suppliers", token,
		map[string]any{"name": "Acme Supplies"}, nil))

	resp := s.send(t, httptest.NewRequest(http.MethodGet, "/api/backup", nil), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "SupplySync_Backup_")
	backup, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	// a different user restores it
	other := s.login(t, "lee@example.com")

	resp = s.upload(t, "/api/backup", other, "backup.json", backup, nil)
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	resp.Body.Close()

	resp = s.upload(t, "/api/backup", other, "backup.json", []byte(`{"hello":"world"}`), map[string]string{"confirm": "true"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.upload(t, "/api/backup", other, "backup.json", backup, map[string]string{"confirm": "true"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var restored struct {
		Suppliers int `json:"suppliers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&restored))
	resp.Body.Close()
	assert.Equal(t, 1, restored.Suppliers)

	var list struct {
		Suppliers []models.Supplier `json:"suppliers"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/suppliers", other, nil, &list))
	require.Len(t, list.Suppliers, 1)
	assert.Equal(t, "Acme Supplies", list.Suppliers[0].Name)
}

func TestWorkspacesAreIsolatedPerUser(t *testing.T) {
	s := newTestServer(t)
	dana := s.login(t, "dana@example.com")
	lee := s.login(t, "lee@example.com")

	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/api/suppliers", dana,
		map[string]any{"name": "Acme Supplies"}, nil))

	var list struct {
		Suppliers []models.Supplier `json:"suppliers"`
	}
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/api/suppliers", lee, nil, &list))
	assert.Empty(t, list.Suppliers)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	require.Equal(t, http.StatusNoContent, s.call(t, http.MethodPost, "/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/api/state", token, nil, nil))
}

func TestLastCompanyCannotBeDeleted(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "dana@example.com")

	var errBody map[string]string
	status := s.call(t, http.MethodDelete, fmt.Sprintf("/api/companies/%d", models.DefaultCompany().ID), token, nil, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "You cannot delete the only company.", errBody["error"])
}
