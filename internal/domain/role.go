package domain

import "fmt"

// Role is the closed set of user classes the relay connects.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleManager  Role = "MANAGER"
)

// SupportDeskID is the sentinel recipient substituted when a sender names
// no recipient. Managers authenticate as this shared identity, so a second
// manager login supersedes the first instead of broadcasting.
const SupportDeskID = "manager"

// ParseRole maps a wire value onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleManager:
		return RoleManager, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleManager
}
