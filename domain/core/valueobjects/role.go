package valueobjects

import "fmt"

// Role is the organisational role a user registers with.
type Role string

const (
	RoleSponsor         Role = "SPONSOR"
	RoleResearcher      Role = "RESEARCHER"
	RoleHospital        Role = "HOSPITAL"
	RoleEthicsCommittee Role = "ETHICS_COMMITTEE"
	RoleAuditor         Role = "AUDITOR"
)

// Roles lists every role in display order.
var Roles = []Role{RoleSponsor, RoleResearcher, RoleHospital, RoleEthicsCommittee, RoleAuditor}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanAuthor reports whether the backend lets this role create or change
// documents. Ethics committees and auditors are read-only.
func (r Role) CanAuthor() bool {
	switch r {
	case RoleSponsor, RoleResearcher, RoleHospital:
		return true
	default:
		return false
	}
}
