package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Staff roles.
const (
	RoleAdmin   = "admin"
	RoleBarista = "barista"
	RoleBaker   = "baker"
)

// Roles lists every valid staff role.
var Roles = []string{RoleAdmin, RoleBarista, RoleBaker}

// ValidRole reports whether role is one of the declared staff roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// User is a staff account. Locked users cannot be modified or deleted; the
// demo accounts created by the seeder are locked.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:",pk,autoincrement"`
	Version      int64     `bun:"version"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	FirstName    string    `bun:"first_name"`
	LastName     string    `bun:"last_name"`
	Role         string    `bun:"role"`
	Locked       bool      `bun:"locked"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

// FullName joins first and last name, tolerating either being empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
