package companies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/storage"
	"supplysync-backend/internal/workspace"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser uint = 7

func setup(t *testing.T) (*fiber.App, *workspace.Registry) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := workspace.NewRegistry(storage.NewAdapter(storage.NewRedisStore(client, "test:"), log), log)
	h := NewHandler(reg, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, testUser)
		return c.Next()
	})
	app.Get("/companies", h.List())
	app.Post("/companies", h.Create())
	app.Put("/companies/:id", h.Update())
	app.Delete("/companies/:id", h.Delete())
	app.Post("/companies/:id/select", h.Select())
	return app, reg
}

func do(t *testing.T, app *fiber.App, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCreateSelectsNewCompany(t *testing.T) {
	app, reg := setup(t)

	// something in the cart of the default company
	require.NoError(t, reg.Do(context.Background(), testUser, func(s *workspace.Session) error {
		s.State.Products = append(s.State.Products, models.Product{ID: 1, CompanyID: 1, SupplierID: 1, Title: "Widget"})
		s.State.AddToCart(1)
		return nil
	}))

	var created CompanyResponse
	require.Equal(t, http.StatusCreated, do(t, app, http.MethodPost, "/companies",
		map[string]string{"name": "  Northwind  ", "email": "hq@northwind.test"}, &created))
	assert.Equal(t, "Northwind", created.Name)
	assert.True(t, created.Selected)

	require.NoError(t, reg.View(context.Background(), testUser, func(s *workspace.Session) error {
		assert.Equal(t, created.ID, s.State.SelectedCompanyID)
		assert.Empty(t, s.State.Cart)
		return nil
	}))
}

func TestCreateValidation(t *testing.T) {
	app, _ := setup(t)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, "/companies", map[string]string{"name": " "}, &errBody))
	assert.Equal(t, "Company name is required.", errBody["error"])

	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, "/companies",
		map[string]string{"name": "Northwind", "email": "nope"}, &errBody))
	assert.Equal(t, "Please enter a valid email address", errBody["error"])
}

func TestUpdateMergesFields(t *testing.T) {
	app, _ := setup(t)

	var updated CompanyResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPut, "/companies/1",
		map[string]string{"phone": "555-0100"}, &updated))
	assert.Equal(t, models.DefaultCompany().Name, updated.Name)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.True(t, updated.Selected)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPut, "/companies/99", map[string]string{"phone": "1"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPut, "/companies/abc", map[string]string{"phone": "1"}, nil))
}

func TestDeleteCascadesAndReselects(t *testing.T) {
	app, reg := setup(t)

	var created CompanyResponse
	require.Equal(t, http.StatusCreated, do(t, app, http.MethodPost, "/companies", map[string]string{"name": "Northwind"}, &created))
	require.NoError(t, reg.Do(context.Background(), testUser, func(s *workspace.Session) error {
		s.State.SaveSupplier(models.Supplier{Name: "Acme"})
		return nil
	}))

	var list ListResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodDelete, fmt.Sprintf("/companies/%d", created.ID), nil, &list))
	require.Len(t, list.Companies, 1)
	assert.Equal(t, int64(1), list.SelectedCompanyID)
	assert.True(t, list.Companies[0].Selected)

	require.NoError(t, reg.View(context.Background(), testUser, func(s *workspace.Session) error {
		assert.Empty(t, s.State.Suppliers)
		return nil
	}))

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, do(t, app, http.MethodDelete, "/companies/1", nil, &errBody))
	assert.Equal(t, "You cannot delete the only company.", errBody["error"])
}

func TestSelectClearsWorkingOrder(t *testing.T) {
	app, reg := setup(t)

	var created CompanyResponse
	require.Equal(t, http.StatusCreated, do(t, app, http.MethodPost, "/companies", map[string]string{"name": "Northwind"}, &created))

	var list ListResponse
	require.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "/companies/1/select", nil, &list))
	assert.Equal(t, int64(1), list.SelectedCompanyID)

	// survives a reload from redis
	reg.Evict(testUser)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/companies", nil, &list))
	assert.Equal(t, int64(1), list.SelectedCompanyID)
	assert.Len(t, list.Companies, 2)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPost, "/companies/42/select", nil, nil))
}
