package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"

	newApp := func(handler fiber.Handler) *fiber.App {
		app := fiber.New()
		app.Post("/guarded", handler, func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		return app
	}

	t.Run("disabled without secret", func(t *testing.T) {
		app := newApp(Auth("", "", ""))

		req := httptest.NewRequest("POST", "/guarded", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing header", func(t *testing.T) {
		app := newApp(Auth(secret, "", ""))

		req := httptest.NewRequest("POST", "/guarded", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		app := newApp(Auth(secret, "", ""))

		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Token abc")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		app := newApp(Auth(secret, "", ""))

		signed := signToken(t, secret, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		app := newApp(Auth(secret, "", ""))

		signed := signToken(t, "other-secret", jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		app := newApp(Auth(secret, "", ""))

		signed := signToken(t, secret, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("audience and issuer enforced", func(t *testing.T) {
		app := newApp(Auth(secret, "relay-clients", "relay"))

		good := signToken(t, secret, jwt.MapClaims{
			"aud": "relay-clients",
			"iss": "relay",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+good)
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		bad := signToken(t, secret, jwt.MapClaims{
			"aud": "someone-else",
			"iss": "relay",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req = httptest.NewRequest("POST", "/guarded", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bad)
		resp, _ = app.Test(req)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
