package accounts

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdmin,
		RoleModerator,
		RoleUser,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// HasRole is the single authorization predicate for privileged operations.
// Inactive identities hold no role.
func HasRole(identity Identity, required UserRole) bool {
	if identity == nil || !IsValidRole(required) {
		return false
	}

	if !identityActive(identity) {
		return false
	}

	return identity.Role() == required
}

// RequireRole returns ErrPermissionDenied unless HasRole holds
func RequireRole(identity Identity, required UserRole) error {
	if !HasRole(identity, required) {
		return ErrPermissionDenied
	}
	return nil
}
