package domain

// Principal is the identity decoded from a verified access token.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	UserType string `json:"userType"`
}

// NewPrincipal builds the token identity for an account with an already derived role.
func NewPrincipal(account *Account, role Role) Principal {
	return Principal{
		ID:       account.ID,
		Email:    account.Email,
		Role:     role,
		UserType: role.UserType(),
	}
}

// HasRole reports whether the principal's role is in the allow-list.
func (p Principal) HasRole(allowed ...Role) bool {
	for _, role := range allowed {
		if p.Role == role {
			return true
		}
	}
	return false
}

// SecurityProfile selects environment dependent security behavior.
type SecurityProfile string

const (
	ProfileProduction  SecurityProfile = "production"
	ProfileDevelopment SecurityProfile = "development"
	ProfileTest        SecurityProfile = "test"
)

// ParseSecurityProfile normalizes env names; anything unrecognized is development.
func ParseSecurityProfile(env string) SecurityProfile {
	switch env {
	case "production", "prod":
		return ProfileProduction
	case "test", "testing":
		return ProfileTest
	default:
		return ProfileDevelopment
	}
}

// IsProduction reports whether the strict profile is active.
func (p SecurityProfile) IsProduction() bool {
	return p == ProfileProduction
}
