package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finalword/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidTrigger  = errors.New("invalid trigger type")
	ErrMessageNotFound = errors.New("message not found")
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// MessageInput carries the mutable fields of a scheduled message.
type MessageInput struct {
	TriggerType     string
	TriggerDate     *time.Time
	AfterInactivity int
	PhoneNumber     string
	SMSMessage      string
	Email           string
	EmailMessage    string
	Files           []string
}

func validTrigger(triggerType string) bool {
	for _, t := range models.TriggerTypes {
		if t == triggerType {
			return true
		}
	}
	return false
}

func (s *MessageService) Create(ctx context.Context, userID uuid.UUID, input *MessageInput) (*models.Message, error) {
	if !validTrigger(input.TriggerType) {
		return nil, ErrInvalidTrigger
	}

	message := models.Message{
		ID:              uuid.New(),
		UserID:          userID,
		TriggerType:     input.TriggerType,
		TriggerDate:     input.TriggerDate,
		AfterInactivity: input.AfterInactivity,
		PhoneNumber:     input.PhoneNumber,
		SMSMessage:      input.SMSMessage,
		Email:           input.Email,
		EmailMessage:    input.EmailMessage,
		Files:           input.Files,
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &message, nil
}

// List returns the owner's messages, newest first, with the total count for
// pagination. Soft-deleted rows are excluded by GORM's DeletedAt handling.
func (s *MessageService) List(ctx context.Context, userID uuid.UUID, pageSize, pageNumber int) ([]models.Message, int64, error) {
	if pageSize < 1 {
		pageSize = 25
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((pageNumber - 1) * pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	return messages, total, nil
}

func (s *MessageService) Get(ctx context.Context, userID, messageID uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &message, nil
}

func (s *MessageService) Update(ctx context.Context, userID, messageID uuid.UUID, input *MessageInput) error {
	if !validTrigger(input.TriggerType) {
		return ErrInvalidTrigger
	}

	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND user_id = ?", messageID, userID).
		Updates(map[string]interface{}{
			"trigger_type":     input.TriggerType,
			"trigger_date":     input.TriggerDate,
			"after_inactivity": input.AfterInactivity,
			"phone_number":     input.PhoneNumber,
			"sms_message":      input.SMSMessage,
			"email":            input.Email,
			"email_message":    input.EmailMessage,
			"files":            datatypes.JSONSlice[string](input.Files),
		})
	if result.Error != nil {
		return fmt.Errorf("update message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete soft-deletes; the row stays behind deleted_at for audit.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
