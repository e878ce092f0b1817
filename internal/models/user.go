package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account record. Password holds the bcrypt hash and is empty
// for accounts created through federated login; such accounts cannot
// authenticate with a password until one is set.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName       string    `gorm:"size:255;not null" json:"fullName"`
	Email          string    `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	Password       string    `gorm:"size:255" json:"-"`
	EmailConfirmed bool      `gorm:"default:false" json:"emailConfirmed"`
	// LastActivity is the dead-man's-switch heartbeat. The inactivity
	// dispatcher compares it against each message's afterInactivity window.
	LastActivity time.Time `gorm:"not null" json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can authenticate locally.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
