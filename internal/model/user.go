package model

import "time"

// Roles carried in the users.role column and the token "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User mirrors the users table. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Photo        string    `json:"photo,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RegisterInput is the public sign-up payload.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Photo    string `json:"photo" validate:"omitempty,url"`
}

// LoginInput accepts either an email or a username in Identifier. Email is
// kept for clients that post {"email": ...}.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password" validate:"required"`
}

// Login returns whichever identifier the client sent.
func (in LoginInput) Login() string {
	for _, v := range []string{in.Identifier, in.Email, in.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

// CreateUserInput is the admin-only variant of RegisterInput.
type CreateUserInput struct {
	RegisterInput
	Role string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UserPatch is a partial user update. Password and Role are accepted on the
// wire but always discarded before persisting.
type UserPatch struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=64,excludes=@"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Photo    *string `json:"photo" validate:"omitempty,url"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// StripPrivileged clears fields a generic update must never change.
func (p *UserPatch) StripPrivileged() {
	p.Password = nil
	p.Role = nil
}
