package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docserver-api/internal/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		role, _ := c.Locals("user_role").(string)
		return c.JSON(fiber.Map{"id": id, "role": role})
	})
	return app
}

func TestJWTProtectedResolvesPrincipal(t *testing.T) {
	app := newProtectedApp()

	token := signToken(t, jwt.MapClaims{
		"sub":  "42",
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsMissingAndBadTokens(t *testing.T) {
	app := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"})
	forged, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		middleware.JWTProtected(testSecret),
		middleware.RequireRole("admin"),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	studentToken := signToken(t, jwt.MapClaims{"sub": "7", "role": "student"})
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	adminToken := signToken(t, jwt.MapClaims{"sub": "7", "role": "admin"})
	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
