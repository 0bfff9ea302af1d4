package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supplysync-backend/internal/config"
	"supplysync-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	handler *Handler
	evicted []uint
}

func setup(t *testing.T, appEnv string) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := &config.Config{JWTSecret: testSecret, JWTTTL: time.Hour, AppEnv: appEnv}
	env := &testEnv{db: db}
	env.handler = NewHandler(db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.handler.OnLogout = func(id uint) { env.evicted = append(env.evicted, id) }

	env.app = fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	h := env.handler
	env.app.Post("/register", h.Register())
	env.app.Post("/login", h.Login())
	env.app.Post("/reset/request", h.RequestPasswordReset())
	env.app.Post("/reset/confirm", h.ConfirmPasswordReset())
	protected := env.app.Group("", JWTMiddleware(cfg, db))
	protected.Get("/me", h.Me())
	protected.Post("/logout", h.Logout())
	protected.Put("/profile", h.UpdateProfile())
	protected.Put("/password", h.ChangePassword())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func (e *testEnv) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()
	code, _ := e.do(t, "POST", "/register", "", map[string]string{"full_name": "Test User", "email": email, "password": password})
	require.Equal(t, http.StatusCreated, code)
	code, body := e.do(t, "POST", "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code)
	return body["token"].(string)
}

func TestRegister(t *testing.T) {
	env := setup(t, "development")

	tests := []struct {
		name string
		body map[string]string
		code int
		msg  string
	}{
		{"missing fields", map[string]string{"email": "a@b.co"}, http.StatusBadRequest, "All fields are required"},
		{"bad email", map[string]string{"full_name": "A", "email": "nope", "password": "secret1"}, http.StatusBadRequest, "Please enter a valid email address"},
		{"short password", map[string]string{"full_name": "A", "email": "a@b.co", "password": "123"}, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"ok", map[string]string{"full_name": "A", "email": "A@B.co ", "password": "secret1"}, http.StatusCreated, ""},
		{"duplicate", map[string]string{"full_name": "B", "email": "a@b.co", "password": "secret2"}, http.StatusConflict, "User with this email already exists"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := env.do(t, "POST", "/register", "", tc.body)
			assert.Equal(t, tc.code, code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, body["error"])
			} else {
				assert.Equal(t, "a@b.co", body["email"])
			}
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	env := setup(t, "development")
	token := env.registerAndLogin(t, "user@example.com", "secret1")

	t.Run("wrong password", func(t *testing.T) {
		code, body := env.do(t, "POST", "/login", "", map[string]string{"email": "user@example.com", "password": "nope12"})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Incorrect email or password", body["error"])
	})

	t.Run("me", func(t *testing.T) {
		code, body := env.do(t, "GET", "/me", token, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "user@example.com", body["email"])
	})

	t.Run("missing or bad token", func(t *testing.T) {
		code, _ := env.do(t, "GET", "/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		code, _ = env.do(t, "GET", "/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setup(t, "development")
	token := env.registerAndLogin(t, "user@example.com", "secret1")

	code, _ := env.do(t, "POST", "/logout", token, nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Len(t, env.evicted, 1)

	code, _ = env.do(t, "GET", "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUpdateProfile(t *testing.T) {
	env := setup(t, "development")
	token := env.registerAndLogin(t, "one@example.com", "secret1")
	env.registerAndLogin(t, "two@example.com", "secret1")

	code, body := env.do(t, "PUT", "/profile", token, map[string]string{"email": "two@example.com"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email is already in use by another account", body["error"])

	code, body = env.do(t, "PUT", "/profile", token, map[string]string{"full_name": "Renamed", "email": "new@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Renamed", body["full_name"])
	assert.Equal(t, "new@example.com", body["email"])
}

func TestChangePassword(t *testing.T) {
	env := setup(t, "development")
	token := env.registerAndLogin(t, "user@example.com", "secret1")

	code, body := env.do(t, "PUT", "/password", token, map[string]string{"current_password": "wrong1", "new_password": "newpass"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Current password is incorrect", body["error"])

	code, body = env.do(t, "PUT", "/password", token, map[string]string{"current_password": "secret1", "new_password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New password must be at least 6 characters long", body["error"])

	code, body = env.do(t, "PUT", "/password", token, map[string]string{"current_password": "secret1", "new_password": "newpass"})
	require.Equal(t, http.StatusOK, code)
	fresh := body["token"].(string)

	code, _ = env.do(t, "GET", "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "old token is revoked")
	code, _ = env.do(t, "GET", "/me", fresh, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, "POST", "/login", "", map[string]string{"email": "user@example.com", "password": "newpass"})
	assert.Equal(t, http.StatusOK, code)
}

func TestPasswordReset(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		env := setup(t, "development")
		env.registerAndLogin(t, "user@example.com", "secret1")

		code, body := env.do(t, "POST", "/reset/request", "", map[string]string{"email": "user@example.com"})
		require.Equal(t, http.StatusOK, code)
		token, ok := body["reset_token"].(string)
		require.True(t, ok)

		code, _ = env.do(t, "POST", "/reset/confirm", "", map[string]string{"email": "user@example.com", "token": "wrong", "new_password": "newpass"})
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = env.do(t, "POST", "/reset/confirm", "", map[string]string{"email": "user@example.com", "token": token, "new_password": "newpass"})
		require.Equal(t, http.StatusOK, code)

		code, _ = env.do(t, "POST", "/reset/confirm", "", map[string]string{"email": "user@example.com", "token": token, "new_password": "another"})
		assert.Equal(t, http.StatusBadRequest, code, "token is single use")

		code, _ = env.do(t, "POST", "/login", "", map[string]string{"email": "user@example.com", "password": "newpass"})
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("expired token", func(t *testing.T) {
		env := setup(t, "development")
		env.registerAndLogin(t, "user@example.com", "secret1")
		_, body := env.do(t, "POST", "/reset/request", "", map[string]string{"email": "user@example.com"})
		token := body["reset_token"].(string)

		env.handler.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		code, _ := env.do(t, "POST", "/reset/confirm", "", map[string]string{"email": "user@example.com", "token": token, "new_password": "newpass"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("production hides the token and unknown emails", func(t *testing.T) {
		env := setup(t, "production")
		env.registerAndLogin(t, "user@example.com", "secret1")

		code, body := env.do(t, "POST", "/reset/request", "", map[string]string{"email": "user@example.com"})
		require.Equal(t, http.StatusOK, code)
		assert.NotContains(t, body, "reset_token")

		code, other := env.do(t, "POST", "/reset/request", "", map[string]string{"email": "ghost@example.com"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, body["message"], other["message"])
	})
}
