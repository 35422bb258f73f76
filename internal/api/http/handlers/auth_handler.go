package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/semprecheio/auth-api/internal/api/dto"
	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/service"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

// AuthHandler exposes the session endpoints under /api/auth.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.CookieManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookieManager) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// Login handles /api/auth/login. It is mounted for every method so non-POST
// requests get a 405 in the standard error shape.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return apperrors.NewMethodNotAllowed()
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("Corpo da requisição inválido", nil)
	}

	result, err := h.auth.Login(c.UserContext(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Encrypted:  req.Encrypted,
	})
	if err != nil {
		return err
	}

	h.cookies.SetSession(c, result.Tokens, result.RememberMe)
	return c.JSON(dto.LoginResponse{
		Success: true,
		Message: "Login realizado com sucesso",
		User:    dto.NewUserResponse(result.Account, result.Principal.Role),
	})
}

// CurrentUser handles GET /api/auth/user.
func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNoToken()
	}
	return c.JSON(dto.CurrentUserResponse{Success: true, User: principal})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token, expiresAt, principal, err := h.auth.Refresh(c.UserContext(), c.Cookies(auth.RefreshTokenCookie))
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeInternal) {
			h.cookies.Clear(c)
		}
		return err
	}

	h.cookies.SetAccess(c, token, expiresAt)
	return c.JSON(dto.CurrentUserResponse{Success: true, User: principal})
}

// Logout handles POST /api/auth/logout. Cookies are cleared even when revocation fails.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	err := h.auth.Logout(c.UserContext(), auth.ExtractAccessToken(c), c.Cookies(auth.RefreshTokenCookie))
	h.cookies.Clear(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Logout realizado com sucesso"})
}

// ChangePassword handles POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNoToken()
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("Corpo da requisição inválido", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Encrypted:       req.Encrypted,
	}); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Senha alterada com sucesso"})
}
