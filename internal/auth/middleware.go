package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/repository"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware validates access tokens and attaches the principal.
type AuthMiddleware struct {
	tokens  *TokenManager
	cookies *CookieManager
	revoked repository.TokenRevocationStore
	logger  *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, cookies *CookieManager, revoked repository.TokenRevocationStore, logger *zap.Logger) *AuthMiddleware {
	if revoked == nil {
		revoked = repository.NewNoopRevocationStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, cookies: cookies, revoked: revoked, logger: logger}
}

// Handle enforces authentication for protected routes. Invalid tokens clear the session cookies.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := ExtractAccessToken(c)
	if raw == "" {
		return apperrors.NewNoToken()
	}

	claims, err := m.tokens.ParseAccessToken(raw)
	if err != nil {
		m.logger.Debug("access token rejected", zap.Error(err))
		m.cookies.Clear(c)
		return apperrors.NewInvalidToken()
	}

	revoked, err := m.revoked.IsRevoked(c.UserContext(), claims.RegisteredClaims.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if revoked {
		m.cookies.Clear(c)
		return apperrors.NewInvalidToken()
	}

	c.Locals(principalKey, claims.Principal())
	return c.Next()
}

// ExtractAccessToken reads the access cookie, falling back to a bearer header.
func ExtractAccessToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// PrincipalFromContext retrieves the authenticated identity.
func PrincipalFromContext(c *fiber.Ctx) (domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(domain.Principal)
	return principal, ok
}
