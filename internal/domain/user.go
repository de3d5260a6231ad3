package domain

import "time"

// Role enumerates application roles.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

// Privileged reports whether the role can act on other users' records.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is an authenticated operator of the system.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       RecordStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the slim user projection joined into history and requests.
type UserSummary struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Summary projects the user onto UserSummary.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
