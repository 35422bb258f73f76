package dto

import (
	"time"

	"github.com/semprecheio/auth-api/internal/domain"
)

// CreateAccountRequest payload for super admins creating accounts.
type CreateAccountRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	ServiceType string `json:"serviceType"`
}

// UpdateAccountStatusRequest toggles the active flag.
type UpdateAccountStatusRequest struct {
	Active *bool `json:"active"`
}

// AccountResponse is the admin view of an account.
type AccountResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role,omitempty"`
	UserType    string      `json:"userType"`
	ServiceType string      `json:"serviceType,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewAccountResponse maps a stored account.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Role:        account.Role,
		UserType:    account.Role.UserType(),
		ServiceType: account.ServiceType,
		Active:      account.Active,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

// NewAccountListResponse maps a slice of accounts.
func NewAccountListResponse(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, NewAccountResponse(account))
	}
	return out
}
