package domain

import "strings"

// Role is the coarse permission tier carried in tokens.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	// RoleUser is the generic authenticated role for accounts with no explicit tier.
	RoleUser Role = "user"
)

// UserType labels derived from a role, exposed to the frontend.
const (
	UserTypeSuperAdmin = "super_admin"
	UserTypeAdmin      = "admin"
	UserTypeClient     = "client"
)

// ParseRole maps a stored value to a known role. Unknown values yield false.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// UserType returns the frontend label for the role.
func (r Role) UserType() string {
	switch r {
	case RoleSuperAdmin:
		return UserTypeSuperAdmin
	case RoleAdmin:
		return UserTypeAdmin
	default:
		return UserTypeClient
	}
}

// DeriveRole resolves the role embedded at token issuance: the stored role when
// present, otherwise super_admin for a configured super-admin email, otherwise RoleUser.
// Email comparison is exact, matching the credential lookup.
func DeriveRole(account *Account, superAdminEmails []string) Role {
	if account == nil {
		return RoleUser
	}
	if role, ok := ParseRole(string(account.Role)); ok {
		return role
	}
	for _, email := range superAdminEmails {
		if email != "" && account.Email == email {
			return RoleSuperAdmin
		}
	}
	return RoleUser
}
