package auth

import "storefront/internal/model"

// Identity is the authenticated caller, resolved once from the bearer token at
// the request boundary and passed explicitly into services.
type Identity struct {
	UserID   uint
	Username string
	Role     model.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// IdentityOf builds the identity for a stored user.
func IdentityOf(u *model.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
