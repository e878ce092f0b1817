package store

import (
	"context"
	"errors"
	"time"

	"github.com/finalword/backend/internal/models"
	"gorm.io/gorm"
)

// TokenStore is the refresh-token-store contract. Rows are keyed by the
// token string itself. Rotate and Delete report whether a row matched so
// callers can distinguish a lost race or an already-revoked token from a
// store fault.
type TokenStore interface {
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Create(ctx context.Context, token *models.RefreshToken) error
	// Rotate replaces the stored token string and expiry in one conditional
	// update. It returns false when no row still carries oldToken, which is
	// how at-most-one rotation per presented token is enforced under
	// concurrent refresh calls.
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type gormTokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) TokenStore {
	return &gormTokenStore{db: db}
}

func (s *gormTokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *gormTokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *gormTokenStore) Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", oldToken).
		Updates(map[string]interface{}{
			"token":      newToken,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *gormTokenStore) Delete(ctx context.Context, token string) (bool, error) {
	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *gormTokenStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
