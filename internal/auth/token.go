package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/semprecheio/auth-api/internal/domain"
)

// Token audiences. A refresh token never verifies as an access token and vice versa.
const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID   string      `json:"id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	UserType string      `json:"userType"`
	jwt.RegisteredClaims
}

// Principal returns the identity carried by the claims.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{ID: c.UserID, Email: c.Email, Role: c.Role, UserType: c.UserType}
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	AccessID         string
	RefreshToken     string
	RefreshExpiresAt time.Time
	RefreshID        string
}

// AccessTTL returns the access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// IssueTokenPair signs an access and a refresh token for the principal.
func (tm *TokenManager) IssueTokenPair(p domain.Principal) (TokenPair, error) {
	access, accessExp, accessID, err := tm.sign(p, AudienceAccess, tm.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, refreshID, err := tm.sign(p, AudienceRefresh, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		AccessID:         accessID,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		RefreshID:        refreshID,
	}, nil
}

// Refresh validates a refresh token and mints a new access token with the same identity.
func (tm *TokenManager) Refresh(refreshToken string) (string, time.Time, *Claims, error) {
	claims, err := tm.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	token, exp, _, err := tm.sign(claims.Principal(), AudienceAccess, tm.accessTTL)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, claims, nil
}

// ParseAccessToken validates an access token.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, AudienceAccess)
}

// ParseRefreshToken validates a refresh token.
func (tm *TokenManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, AudienceRefresh)
}

func (tm *TokenManager) sign(p domain.Principal, audience string, ttl time.Duration) (string, time.Time, string, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()
	claims := &Claims{
		UserID:   p.ID,
		Email:    p.Email,
		Role:     p.Role,
		UserType: p.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, "", err
	}
	return tokenString, expiresAt, jti, nil
}

func (tm *TokenManager) parse(tokenStr, audience string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
