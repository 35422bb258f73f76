package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/semprecheio/auth-api/internal/api/dto"
	"github.com/semprecheio/auth-api/internal/auth"
	"github.com/semprecheio/auth-api/internal/domain"
	"github.com/semprecheio/auth-api/internal/repository"
	"github.com/semprecheio/auth-api/internal/service"
	apperrors "github.com/semprecheio/auth-api/pkg/util/errorutil"
)

// AccountsHandler exposes account management to super admins.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accountService}
}

// List handles GET /api/admin/accounts.
func (h *AccountsHandler) List(c *fiber.Ctx) error {
	var filter repository.AccountFilter
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewMalformedInput("Filtro 'active' inválido", map[string]any{"active": raw})
		}
		filter.Active = &active
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			return apperrors.NewMalformedInput("Filtro 'role' inválido", map[string]any{"role": raw})
		}
		filter.Role = &role
	}

	accounts, err := h.accounts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewAccountListResponse(accounts)})
}

// Create handles POST /api/admin/accounts.
func (h *AccountsHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewMalformedInput("Corpo da requisição inválido", nil)
	}

	account, err := h.accounts.Create(c.UserContext(), principal, service.CreateAccountInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": dto.NewAccountResponse(account)})
}

// SetStatus handles PATCH /api/admin/accounts/:id/status.
func (h *AccountsHandler) SetStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.UpdateAccountStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return apperrors.NewMalformedInput("Campo 'active' é obrigatório", nil)
	}

	account, err := h.accounts.SetActive(c.UserContext(), principal, c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewAccountResponse(account)})
}
