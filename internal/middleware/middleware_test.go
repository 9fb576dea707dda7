package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository/memstore"
)

func newTestApp(t *testing.T) (*fiber.App, *auth.TokenService, *Gate) {
	t.Helper()
	stores := memstore.New()
	ctx := context.Background()
	require.NoError(t, stores.Users.Create(ctx, &models.User{ID: "1", Email: "admin@b.c", Role: models.RoleAdmin, IsAdmin: true, Verified: true}))
	require.NoError(t, stores.Users.Create(ctx, &models.User{ID: "2", Email: "student@b.c", Role: models.RoleStudent, Verified: true}))

	tokens := auth.NewTokenService("test-secret", time.Hour, 15*time.Minute)
	gate := NewGate(tokens, stores.Users)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *apperr.Error
			if errors.As(err, &e) {
				return c.Status(e.Kind.Status()).JSON(fiber.Map{"detail": e.Message})
			}
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"detail": err.Error()})
		},
	})
	app.Get("/me", gate.Authenticate, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"email": Subject(c), "admin_claim": Claims(c).IsAdmin})
	})
	app.Get("/admin", gate.Authenticate, gate.RequireAdmin, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"email": CurrentUser(c).Email})
	})
	return app, tokens, gate
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestAuthenticate(t *testing.T) {
	app, tokens, _ := newTestApp(t)

	t.Run("missing token", func(t *testing.T) {
		status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Missing authentication token", body["detail"])
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		status, body := do(t, app, req)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid or expired token", body["detail"])
	})

	t.Run("verification token is not an access token", func(t *testing.T) {
		token, err := tokens.IssueVerification("student@b.c")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		status, _ := do(t, app, req)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("bearer header", func(t *testing.T) {
		token, err := tokens.IssueAccess("student@b.c", models.RoleStudent, false)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		status, body := do(t, app, req)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "student@b.c", body["email"])
	})

	t.Run("cookie fallback", func(t *testing.T) {
		token, err := tokens.IssueAccess("student@b.c", models.RoleStudent, false)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		status, body := do(t, app, req)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "student@b.c", body["email"])
	})
}

func TestRequireAdmin(t *testing.T) {
	app, tokens, _ := newTestApp(t)

	call := func(email string, adminClaim bool) (int, map[string]any) {
		token, err := tokens.IssueAccess(email, models.RoleStudent, adminClaim)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return do(t, app, req)
	}

	status, body := call("admin@b.c", false)
	assert.Equal(t, http.StatusOK, status, "stored flag wins over the claim")
	assert.Equal(t, "admin@b.c", body["email"])

	status, body = call("student@b.c", true)
	assert.Equal(t, http.StatusForbidden, status, "a forged admin claim is ignored")
	assert.Equal(t, "Admin access required", body["detail"])

	status, body = call("deleted@b.c", true)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User no longer exists", body["detail"])
}
