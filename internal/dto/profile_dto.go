package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
}

type ProfileResponse struct {
	ID             uuid.UUID `json:"_id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	LastActivity   time.Time `json:"lastActivity"`
	EmailConfirmed bool      `json:"emailConfirmed"`
}
