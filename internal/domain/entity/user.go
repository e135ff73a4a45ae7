package entity

import "time"

// Role is the workflow role assigned to a user.
type Role string

const (
	RoleEmployee           Role = "EMPLOYEE"
	RoleRepresentative     Role = "REPRESENTATIVE"
	RoleViceRepresentative Role = "VICE_REPRESENTATIVE"
	RoleAccountant         Role = "ACCOUNTANT"
	RoleAdmin              Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleEmployee:           true,
	RoleRepresentative:     true,
	RoleViceRepresentative: true,
	RoleAccountant:         true,
	RoleAdmin:              true,
}

// IsValid returns true if the role is a known workflow role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// User is the identity projection the workflow operates on.
// Identity fields (id, email, name) originate from the identity provider;
// the role is owned by the local directory and mutable only by an admin.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
