package models

import (
	"strings"
	"time"
)

// UserRole represents the closed set of roles an account can hold.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Roles lists every role in display order.
var Roles = []UserRole{RoleAdmin, RoleTeacher, RoleStudent}

// ParseRole normalises raw input into a known role.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return role, true
	}
	return "", false
}

// Valid reports whether the role belongs to the closed set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// OutreachSources are the acquisition channels accepted at signup.
var OutreachSources = []string{
	"Google",
	"Social Media",
	"Friend or Family",
	"Flyer",
	"School",
	"Other",
}

// IsOutreachSource reports whether source is one of OutreachSources.
func IsOutreachSource(source string) bool {
	for _, s := range OutreachSources {
		if s == source {
			return true
		}
	}
	return false
}

// Account is a credential record stored in the accounts table.
type Account struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           UserRole  `db:"role" json:"role"`
	AdminPinHash   *string   `db:"admin_pin_hash" json:"-"`
	OutreachSource string    `db:"outreach_source" json:"outreach_source"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AccountFilter narrows admin account listings.
type AccountFilter struct {
	Role   *UserRole
	Search string
}

// NormalizeEmail case-folds and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
