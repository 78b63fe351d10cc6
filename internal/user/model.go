// File: internal/user/model.go
package user

import (
	"strings"
	"time"
)

// Authorization roles stored on the local user and mirrored to the provider.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the local copy of a provider account.
// ID is the provider-assigned identifier; Email is the key used to match events.
type User struct {
	ID        string    `gorm:"type:varchar(255);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:users_email_key"`
	Picture   string    `gorm:"type:text;not null"`
	Role      string    `gorm:"type:varchar(50);not null;default:'USER'"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// EffectiveRole returns the stored role, or RoleUser when none is set.
func (u *User) EffectiveRole() string {
	if u == nil || u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// Profile is the partial user record derived from a provider event. It never
// carries a role: the role is owned locally.
type Profile struct {
	ID      string
	Name    string
	Email   string
	Picture string
}

// FullName joins first and last name the way the provider displays them.
// Missing parts are dropped instead of leaving stray spaces.
func FullName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

// NewUserFromProfile builds the row inserted for an email seen for the first time.
func NewUserFromProfile(p Profile) *User {
	return &User{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Picture: p.Picture,
		Role:    RoleUser,
	}
}
