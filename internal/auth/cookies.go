package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/semprecheio/auth-api/internal/config"
)

// Session cookie names.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookieManager writes and clears the session cookies.
type CookieManager struct {
	cfg              config.CookieConfig
	sessionMaxAge    time.Duration
	rememberMeMaxAge time.Duration
}

// NewCookieManager constructs a manager. Zero max-ages fall back to 24h and 30d.
func NewCookieManager(cfg config.CookieConfig, sessionMaxAge, rememberMeMaxAge time.Duration) *CookieManager {
	if sessionMaxAge <= 0 {
		sessionMaxAge = 24 * time.Hour
	}
	if rememberMeMaxAge <= 0 {
		rememberMeMaxAge = 30 * 24 * time.Hour
	}
	if cfg.SameSite == "" {
		cfg.SameSite = fiber.CookieSameSiteStrictMode
	}
	return &CookieManager{cfg: cfg, sessionMaxAge: sessionMaxAge, rememberMeMaxAge: rememberMeMaxAge}
}

// SetSession writes both cookies. Remember-me extends the refresh cookie to the long session window.
func (m *CookieManager) SetSession(c *fiber.Ctx, pair TokenPair, rememberMe bool) {
	m.SetAccess(c, pair.AccessToken, pair.AccessExpiresAt)

	window := m.sessionMaxAge
	if rememberMe {
		window = m.rememberMeMaxAge
	}
	c.Cookie(m.cookie(RefreshTokenCookie, pair.RefreshToken, capDuration(window, time.Until(pair.RefreshExpiresAt))))
}

// SetAccess writes only the access cookie, as done after a refresh.
func (m *CookieManager) SetAccess(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(m.cookie(AccessTokenCookie, token, capDuration(m.sessionMaxAge, time.Until(expiresAt))))
}

// Clear expires both cookies.
func (m *CookieManager) Clear(c *fiber.Ctx) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := m.cookie(name, "", 0)
		ck.Expires = time.Unix(0, 0)
		c.Cookie(ck)
	}
}

func (m *CookieManager) cookie(name, value string, maxAge time.Duration) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   m.cfg.Secure,
		HTTPOnly: true,
		SameSite: m.cfg.SameSite,
	}
	// Domain scoping only applies to secure (production) cookies.
	if m.cfg.Secure && m.cfg.Domain != "" {
		ck.Domain = m.cfg.Domain
	}
	return ck
}

func capDuration(d, limit time.Duration) time.Duration {
	if limit < d {
		d = limit
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
