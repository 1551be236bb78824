package models

// UserRole is a role tier carried in externally issued identity tokens. The
// API only consumes role claims; issuing tokens and computing role membership
// belongs to the identity service.
type UserRole string

const (
	RoleViewer   UserRole = "viewer"
	RoleOperator UserRole = "operator"
	RoleAdmin    UserRole = "admin"
)

var roleRank = map[UserRole]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// IsValidRole reports whether the role is a known tier.
func IsValidRole(role UserRole) bool {
	_, ok := roleRank[role]
	return ok
}

// NormalizeRoles drops unknown or duplicate role values.
func NormalizeRoles(roles []UserRole) []UserRole {
	seen := make(map[UserRole]bool, len(roles))
	var out []UserRole
	for _, r := range roles {
		if _, known := roleRank[r]; !known || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// EnsureDefaultRole guarantees at least the viewer tier.
func EnsureDefaultRole(roles []UserRole) []UserRole {
	if len(roles) == 0 {
		return []UserRole{RoleViewer}
	}
	return roles
}

// IsValidRoleList reports whether every role is a known tier.
func IsValidRoleList(roles []UserRole) bool {
	if len(roles) == 0 {
		return false
	}
	for _, r := range roles {
		if _, ok := roleRank[r]; !ok {
			return false
		}
	}
	return true
}

// HasAtLeast reports whether any held role meets the required tier.
func HasAtLeast(roles []UserRole, required UserRole) bool {
	need := roleRank[required]
	for _, r := range roles {
		if roleRank[r] >= need {
			return true
		}
	}
	return false
}

// HighestRole returns the strongest tier in the list, viewer if empty.
func HighestRole(roles []UserRole) UserRole {
	best := RoleViewer
	for _, r := range roles {
		if roleRank[r] > roleRank[best] {
			best = r
		}
	}
	return best
}
