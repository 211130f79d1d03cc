// Package security provides roles, capability resolution and record visibility.
package security

import "strings"

// Role is a closed set of actor categories.
type Role string

const (
	RoleUnknown     Role = ""
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSalesman    Role = "salesman"
	RoleSupplyChain Role = "supply_chain"
)

// AllRoles lists every known role.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSalesman, RoleSupplyChain}

// ParseRole maps a string to a Role. Unknown input yields RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleSalesman:
		return RoleSalesman
	case RoleSupplyChain:
		return RoleSupplyChain
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return ParseRole(string(r)) != RoleUnknown
}

func (r Role) String() string { return string(r) }

// CanManageTeam reports whether the role may review records of others.
func (r Role) CanManageTeam() bool {
	return r == RoleAdmin || r == RoleManager
}
