package sso

// UserRole is a role carried by a user and minted into access tokens.
type UserRole = string

const (
	// RoleGuest can only view shared resources
	RoleGuest UserRole = "guest"
	// RoleStaff is non-clinical personnel (i.e. view, edit)
	RoleStaff UserRole = "staff"
	// RoleClinician can manage patient records (i.e. view, edit, create)
	RoleClinician UserRole = "clinician"
	// RoleAdmin administers the installation (i.e. view, edit, create, delete)
	RoleAdmin UserRole = "admin"
)

// ParseRole validates and normalizes a role string
func ParseRole(role string) (UserRole, bool) {
	r := UserRole(role)
	return r, roleRank(r) >= 0
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	return roleRank(r) >= 0
}

// RoleIsAtLeast checks if the role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	have := roleRank(r)
	want := roleRank(minRole)
	if have < 0 || want < 0 {
		return false
	}
	return have >= want
}

// HighestRole returns the highest ranked role in the list, RoleGuest when
// the list is empty or holds no valid role.
func HighestRole(roles []UserRole) UserRole {
	best := RoleGuest
	rank := -1
	for _, r := range roles {
		if rr := roleRank(r); rr > rank {
			best, rank = r, rr
		}
	}
	return best
}

func roleRank(r UserRole) int {
	switch r {
	case RoleGuest:
		return 0
	case RoleStaff:
		return 1
	case RoleClinician:
		return 2
	case RoleAdmin:
		return 3
	default:
		return -1
	}
}
