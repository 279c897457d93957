package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"readwatch/internal/model"
	"readwatch/internal/repository"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// UserService handles business logic for user operations
type UserService struct {
	repo       repository.UserRepository
	followRepo repository.FollowRepository
}

func NewUserService(repo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{
		repo:       repo,
		followRepo: followRepo,
	}
}

// Register creates a user. Uniqueness is left to the database constraint.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, model.ErrUsernameRequired
	}
	if len(username) < model.MinUsernameLength || len(username) > model.MaxUsernameLength ||
		!usernamePattern.MatchString(username) {
		return nil, model.ErrInvalidUsername
	}

	user := &model.User{Username: username}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

// GetProfile returns a user with follow counts. IsFollowing is only computed
// for an authenticated viewer looking at someone else; a failed check leaves
// it false rather than failing the profile.
func (s *UserService) GetProfile(ctx context.Context, username string, viewerID *int64) (*model.ProfileResponse, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	followers, following, err := s.followRepo.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &model.ProfileResponse{
		User:           user,
		FollowerCount:  followers,
		FollowingCount: following,
	}

	if viewerID != nil && *viewerID != user.ID {
		if ok, err := s.followRepo.Exists(ctx, *viewerID, user.ID); err == nil {
			profile.IsFollowing = ok
		}
	}

	return profile, nil
}
