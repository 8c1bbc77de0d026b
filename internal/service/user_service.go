package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileInput carries the profile fields a user may edit.
type ProfileInput struct {
	FirstName string
	LastName  string
	Address   string
	Phone     string
}

// UserService exposes profile operations.
type UserService interface {
	GetProfile(ctx context.Context, identity auth.Identity) (*model.User, error)
	UpdateProfile(ctx context.Context, identity auth.Identity, input ProfileInput) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) GetProfile(ctx context.Context, identity auth.Identity) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(identity.UserID), &cached) {
		return &cached, nil
	}

	user, err := s.find(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, s.cacheKey(user.ID), user, userCacheTTL)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, identity auth.Identity, input ProfileInput) (*model.User, error) {
	user, err := s.find(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Address = input.Address
	user.Phone = input.Phone
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) find(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
