package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/finalword/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore is the credential-store contract. Email lookups are
// case-insensitive; implementations must back Create with a uniqueness
// constraint on the normalized email, the pre-check in the register flow
// is only an optimization.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error
}

type gormUserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

// NormalizeEmail is applied on every write and lookup so the unique index
// on users.email is effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *gormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *gormUserStore) Update(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *gormUserStore) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_activity", at).Error
}
