package domain

import "time"

// Role is the privilege level an account holds.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleOther Role = "OTHER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleOther:
		return true
	}
	return false
}

// User represents a registered account of the system.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
