package service

import "checkin-service/internal/model"

// Identity is the authenticated caller context every operation is scoped
// by. AdminID is set for role=user callers and names their owning tenant.
type Identity struct {
	UserID   string
	Username string
	Role     string
	AdminID  *string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// IdentityOf derives the caller context from a stored user.
func IdentityOf(user model.User) Identity {
	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		AdminID:  user.AdminID,
	}
}
