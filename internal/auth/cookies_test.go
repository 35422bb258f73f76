package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semprecheio/auth-api/internal/config"
)

func cookiesFrom(t *testing.T, cm *CookieManager, write func(c *fiber.Ctx)) map[string]*http.Cookie {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		write(c)
		return c.SendStatus(http.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	out := map[string]*http.Cookie{}
	for _, ck := range resp.Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func TestCookieManager_SetSession(t *testing.T) {
	now := time.Now()
	pair := TokenPair{
		AccessToken:      "access",
		AccessExpiresAt:  now.Add(12 * time.Hour),
		RefreshToken:     "refresh",
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	cm := NewCookieManager(config.CookieConfig{SameSite: "Strict", Secure: true, Domain: "semprecheio.com"}, 24*time.Hour, 30*24*time.Hour)

	short := cookiesFrom(t, cm, func(c *fiber.Ctx) { cm.SetSession(c, pair, false) })
	require.Contains(t, short, AccessTokenCookie)
	require.Contains(t, short, RefreshTokenCookie)

	access := short[AccessTokenCookie]
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, "semprecheio.com", access.Domain)
	assert.InDelta(t, (12 * time.Hour).Seconds(), access.MaxAge, 5)
	assert.InDelta(t, (24 * time.Hour).Seconds(), short[RefreshTokenCookie].MaxAge, 5)

	// Remember-me is still bounded by the refresh token lifetime.
	long := cookiesFrom(t, cm, func(c *fiber.Ctx) { cm.SetSession(c, pair, true) })
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), long[RefreshTokenCookie].MaxAge, 5)
}

func TestCookieManager_InsecureOmitsDomain(t *testing.T) {
	cm := NewCookieManager(config.CookieConfig{SameSite: "Lax", Domain: "semprecheio.com"}, 0, 0)
	got := cookiesFrom(t, cm, func(c *fiber.Ctx) { cm.SetAccess(c, "tok", time.Now().Add(time.Hour)) })

	access := got[AccessTokenCookie]
	require.NotNil(t, access)
	assert.False(t, access.Secure)
	assert.Empty(t, access.Domain)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
}

func TestCookieManager_Clear(t *testing.T) {
	cm := NewCookieManager(config.CookieConfig{SameSite: "Strict"}, 0, 0)
	got := cookiesFrom(t, cm, cm.Clear)

	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		require.Contains(t, got, name)
		assert.Empty(t, got[name].Value)
		assert.True(t, got[name].Expires.Before(time.Now()))
	}
}
