package enums

import "fmt"

// Role represents the authenticated identity's access level.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

var validRoles = []Role{
	RoleCustomer,
	RoleAdmin,
	RoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsAdministrative reports whether the role may reach the admin surface.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
