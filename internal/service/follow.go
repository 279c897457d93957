package service

import (
	"context"
	"fmt"

	"readwatch/internal/logger"
	"readwatch/internal/metrics"
	"readwatch/internal/model"
	"readwatch/internal/repository"
)

// FollowService owns the directed follow graph. Duplicate follows and
// unfollows of a missing edge are errors, not no-ops.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	log        logger.Logger
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	log logger.Logger,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		log:        log,
	}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}

	// The unique constraint decides; no read-before-write.
	inserted, err := s.followRepo.Create(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !inserted {
		return model.ErrAlreadyFollowing
	}

	metrics.ObserveFollowChange("follow")
	s.log.Info("follow created", logger.Int64("follower_id", followerID), logger.Int64("followee_id", followeeID))
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	if err := s.followRepo.Delete(ctx, followerID, followeeID); err != nil {
		return err
	}

	metrics.ObserveFollowChange("unfollow")
	s.log.Info("follow removed", logger.Int64("follower_id", followerID), logger.Int64("followee_id", followeeID))
	return nil
}

// Followers returns the ids of users following userID.
func (s *FollowService) Followers(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.followRepo.GetFollowerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("followers of %d: %w", userID, err)
	}
	return ids, nil
}

// Following returns the ids of users userID follows.
func (s *FollowService) Following(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.followRepo.GetFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("following of %d: %w", userID, err)
	}
	return ids, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *FollowService) FollowerUsernames(ctx context.Context, userID int64) (*model.FollowListResponse, error) {
	names, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return usernameList(names), nil
}

func (s *FollowService) FollowingUsernames(ctx context.Context, userID int64) (*model.FollowListResponse, error) {
	names, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return usernameList(names), nil
}

func usernameList(names []string) *model.FollowListResponse {
	if names == nil {
		names = []string{}
	}
	return &model.FollowListResponse{Usernames: names}
}
