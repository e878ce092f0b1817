package services

import (
	"context"
	"errors"

	"github.com/finalword/backend/internal/models"
	"github.com/finalword/backend/internal/store"
	"github.com/google/uuid"
)

var ErrProfileNotFound = errors.New("user not found")

type ProfileService struct {
	users store.UserStore
}

func NewProfileService(users store.UserStore) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return user, err
}

// UpdateFullName is the only profile mutation; email and password changes
// go through dedicated flows.
func (s *ProfileService) UpdateFullName(ctx context.Context, userID uuid.UUID, fullName string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	user.FullName = fullName
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
