// Package models contains data structures for the application's domain models.
package models

import (
	"sort"
	"strings"
	"time"
)

// Built-in role names.
const (
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleUser      = "User"
)

// DefaultRoles are seeded at startup.
func DefaultRoles() []string {
	return []string{RoleAdmin, RoleModerator, RoleUser}
}

// CanonicalRoleName trims the name and maps the built-in roles to their canonical casing,
// so "moderator" and "Moderator" are the same role.
func CanonicalRoleName(name string) string {
	name = strings.TrimSpace(name)
	for _, known := range DefaultRoles() {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

// Role is a named permission group.
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents a registered account.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Email             string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Password          string    `gorm:"not null" json:"-"`
	EmailConfirmed    bool      `gorm:"not null;default:false" json:"email_confirmed"`
	ConfirmationToken *string   `gorm:"size:64;uniqueIndex" json:"-"`
	Roles             []Role    `gorm:"many2many:user_roles;" json:"roles,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RoleNames returns the sorted role names loaded on the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// HasRole reports whether the loaded roles include name.
func (u *User) HasRole(name string) bool {
	name = CanonicalRoleName(name)
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsStaff reports whether the user is a Moderator or Admin.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleModerator) || u.HasRole(RoleAdmin)
}
