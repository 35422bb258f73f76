package dto

import "github.com/semprecheio/auth-api/internal/domain"

// LoginRequest is the login payload. With Encrypted set, Email and Password
// carry ivHex:ciphertextHex values.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
	Encrypted  bool   `json:"encrypted"`
}

// ChangePasswordRequest payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Encrypted       bool   `json:"encrypted"`
}

// UserResponse is the sanitized account returned on login.
type UserResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	ServiceType string      `json:"serviceType,omitempty"`
}

// LoginResponse never carries token values; those travel in cookies only.
type LoginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// CurrentUserResponse wraps the principal read from the access token.
type CurrentUserResponse struct {
	Success bool             `json:"success"`
	User    domain.Principal `json:"user"`
}

// MessageResponse is a bare success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewUserResponse maps an account and its resolved role.
func NewUserResponse(account *domain.Account, role domain.Role) UserResponse {
	return UserResponse{
		ID:          account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Role:        role,
		ServiceType: account.ServiceType,
	}
}
