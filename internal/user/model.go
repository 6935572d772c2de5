// Package user provides the user domain model and data access.
package user

import "time"

// Role determines which parts of the marketplace a user can reach.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleSeeker Role = "seeker"
)

// ValidRole returns true if s is a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleOwner, RoleSeeker:
		return true
	}
	return false
}

// Status is the moderation state of an account.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// ValidStatus returns true if s is a known account status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusSuspended:
		return true
	}
	return false
}

// User is a registered account. Password holds a bcrypt hash, or the
// plaintext of an account stored before hashing was introduced.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Password  string    `json:"password"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Active reports whether the account may log in.
func (u *User) Active() bool {
	return u.Status != StatusSuspended
}

// Session returns the non-secret projection of u kept as the login session.
func (u *User) Session() Session {
	return Session{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}

// Public is a User without its password, used for exports and listings.
type Public struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips the password from u.
func (u *User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Session is the current-user payload. It never carries a password.
type Session struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

// Input holds the fields supplied on registration.
type Input struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     Role
}

// Patch holds optional profile and moderation changes. Nil fields are left
// untouched. Roles are fixed at registration since listings and inquiries
// are attributed by role.
type Patch struct {
	Name   *string
	Phone  *string
	Status *Status
}
