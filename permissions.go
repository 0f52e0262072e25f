package storefront

import "github.com/goliatone/go-errors"

// AllPermissions returns the known permission labels
func AllPermissions() []Permission {
	return []Permission{
		PermissionUser,
		PermissionAdmin,
		PermissionItemCreate,
		PermissionItemUpdate,
		PermissionItemDelete,
		PermissionPermissionUpdate,
	}
}

// IsValidPermission checks a label against the known set
func IsValidPermission(p Permission) bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

// Authorize fails unless user is present and holds at least one of the
// required labels. A nil user is an authentication failure, a present user
// with disjoint labels an authorization failure.
func Authorize(user *User, required ...Permission) error {
	if user == nil {
		return ErrAuthenticationRequired
	}

	if user.HasPermission(required...) {
		return nil
	}

	return errors.New("you don't have sufficient permissions", errors.CategoryAuthz).
		WithCode(errors.CodeForbidden).
		WithTextCode(TextCodePermissionDenied).
		WithMetadata(map[string]any{
			"user_id":  user.ID.String(),
			"required": required,
			"held":     user.Permissions,
		})
}
