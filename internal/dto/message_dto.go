package dto

import (
	"time"

	"github.com/finalword/backend/internal/models"
)

type MessageRequest struct {
	TriggerType     string     `json:"triggerType"`
	TriggerDate     *time.Time `json:"triggerDate,omitempty"`
	AfterInactivity int        `json:"afterInactivity,omitempty"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	SMSMessage      string     `json:"smsMessage,omitempty"`
	Email           string     `json:"email,omitempty"`
	EmailMessage    string     `json:"emailMessage,omitempty"`
	Files           []string   `json:"files,omitempty"`
}

type MessageListResponse struct {
	Data       []models.Message `json:"data"`
	PageSize   int              `json:"pageSize"`
	PageNumber int              `json:"pageNumber"`
	TotalPages int              `json:"totalPages"`
}
