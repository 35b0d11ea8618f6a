package model

// Identity is the caller resolved from a bearer token.
type Identity struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Owns reports whether the caller is userID or an admin.
func (i Identity) Owns(userID string) bool {
	return i.IsAdmin() || (i.ID != "" && i.ID == userID)
}
