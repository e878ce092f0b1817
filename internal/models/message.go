package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TriggerTypeDate       = "date"
	TriggerTypeInactivity = "inactivity"
)

var TriggerTypes = []string{TriggerTypeDate, TriggerTypeInactivity}

// Message is a scheduled dead-man's-switch message. It is released either
// at TriggerDate or once the owner's LastActivity is older than
// AfterInactivity days; Sent marks delivery. The dispatcher that evaluates
// triggers runs outside this service and only consumes this state.
type Message struct {
	ID              uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID                    `gorm:"type:uuid;not null;index" json:"userId"`
	TriggerType     string                       `gorm:"size:20;not null" json:"triggerType"`
	TriggerDate     *time.Time                   `json:"triggerDate,omitempty"`
	AfterInactivity int                          `json:"afterInactivity,omitempty"`
	Sent            *time.Time                   `json:"sent,omitempty"`
	PhoneNumber     string                       `gorm:"size:32" json:"phoneNumber,omitempty"`
	SMSMessage      string                       `gorm:"type:text" json:"smsMessage,omitempty"`
	Email           string                       `gorm:"size:255" json:"email,omitempty"`
	EmailMessage    string                       `gorm:"type:text" json:"emailMessage,omitempty"`
	Files           datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"files"`
	User            User                         `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt       time.Time                    `json:"createdAt"`
	UpdatedAt       time.Time                    `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt               `gorm:"index" json:"-"`
}
