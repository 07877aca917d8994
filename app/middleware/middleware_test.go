package middleware

import (
	"io"
	"net/http/httptest"
	"storefront-service/config"
	"storefront-service/pkg"
	"storefront-service/pkg/ctxutil"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		InternalAuthHeader: "internal-token",
		Jwt:                config.JwtConfig{SecretKey: testSecret, Expire: 3600},
	}
}

func bearer(t *testing.T, uid, role string) string {
	t.Helper()
	token, err := pkg.NewJwtToken(pkg.TokenClaims{UID: uid, Role: role}, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", h, func(c *fiber.Ctx) error {
		uid, _ := c.Locals(ctxutil.UserIDKey).(string)
		role, _ := c.Locals(ctxutil.RoleKey).(string)
		return c.SendString(uid + "|" + role)
	})
	return app
}

func do(t *testing.T, app *fiber.App, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuth(t *testing.T) {
	app := newApp(Auth(testSecret))

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, nil))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, map[string]string{"Authorization": "Bearer garbage"}))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, map[string]string{"Authorization": bearer(t, "", "")}))
	assert.Equal(t, fiber.StatusOK, do(t, app, map[string]string{"Authorization": bearer(t, "user-1", "")}))
}

func TestOptionalAuth(t *testing.T) {
	app := newApp(OptionalAuth(testSecret))

	body := func(headers map[string]string) (int, string) {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(raw)
	}

	status, got := body(nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "|", got)

	status, got = body(map[string]string{"Authorization": bearer(t, "user-1", "user")})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "user-1|user", got)

	status, _ = body(map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAdminAuth(t *testing.T) {
	app := newApp(AdminAuth(testConfig()))

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, map[string]string{"X-Internal-Auth": "internal-token"}))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, map[string]string{"X-Internal-Auth": "wrong"}))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, map[string]string{"Authorization": bearer(t, "user-1", "customer")}))
	assert.Equal(t, fiber.StatusOK, do(t, app, map[string]string{"Authorization": bearer(t, "admin-1", ctxutil.RoleAdmin)}))
}

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ctxutil.GetRequestID(c.Context()))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
}
