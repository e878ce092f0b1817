package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted refresh capability. Possession of the token
// string is the authorization primitive: the row carries no user reference,
// the user id lives inside the signed token itself. Rotation overwrites
// Token and ExpiresAt in place; revocation deletes the row, so a token
// string absent from this table is dead regardless of its signature.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Token     string    `gorm:"type:text;not null;uniqueIndex:idx_refresh_tokens_token" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
