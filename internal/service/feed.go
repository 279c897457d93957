package service

import (
	"context"
	"fmt"

	"readwatch/internal/model"
	"readwatch/internal/repository"
)

// FeedMaxLimit caps a feed page and is also the default size.
const FeedMaxLimit = 50

// FeedService builds a user's feed from the items of the users they follow.
// The requester's own items are not part of it.
type FeedService struct {
	follows  *FollowService
	itemRepo repository.ItemRepository
}

func NewFeedService(follows *FollowService, itemRepo repository.ItemRepository) *FeedService {
	return &FeedService{follows: follows, itemRepo: itemRepo}
}

// NormalizeFeedLimit maps out-of-range limits to FeedMaxLimit.
func NormalizeFeedLimit(limit int) int {
	if limit <= 0 || limit > FeedMaxLimit {
		return FeedMaxLimit
	}
	return limit
}

// AssembleFeed returns up to limit items owned by followed users, newest first.
// It never returns a nil slice.
func (s *FeedService) AssembleFeed(ctx context.Context, userID int64, limit int) ([]model.Item, error) {
	limit = NormalizeFeedLimit(limit)

	followed, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(followed) == 0 {
		return []model.Item{}, nil
	}

	items, err := s.itemRepo.ListByOwners(ctx, followed, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}
