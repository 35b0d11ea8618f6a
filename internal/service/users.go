package service

import (
	"context"
	"strings"

	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

// UserService is the admin and self-service view of user records.
type UserService struct {
	users *repository.UserRepo
	v     *validation.Validator
}

// NewUserService returns a UserService.
func NewUserService(users *repository.UserRepo, v *validation.Validator) *UserService {
	return &UserService{users: users, v: v}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, userID string) (model.User, error) {
	if err := requireID(userID, "user"); err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

// List pages through all users, newest first.
func (s *UserService) List(ctx context.Context, p model.ListParams) (model.Page[model.User], error) {
	p, err := p.Normalize()
	if err != nil {
		return model.Page[model.User]{}, err
	}
	return s.users.List(ctx, p)
}

// Update applies a partial update. Password and role are always stripped,
// whoever the caller is.
func (s *UserService) Update(ctx context.Context, userID string, patch model.UserPatch) (model.User, error) {
	if err := requireID(userID, "user"); err != nil {
		return model.User{}, err
	}
	patch.StripPrivileged()
	if err := s.v.Validate(patch); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if patch.Username != nil {
		u.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Photo != nil {
		u.Photo = *patch.Photo
	}
	if err := s.users.Update(ctx, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Delete removes a user and returns the removed record.
func (s *UserService) Delete(ctx context.Context, userID string) (model.User, error) {
	if err := requireID(userID, "user"); err != nil {
		return model.User{}, err
	}
	return s.users.Delete(ctx, userID)
}
