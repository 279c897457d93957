package service

import (
	"context"
	"errors"
	"fmt"

	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/repository"
)

type ItemService struct {
	itemRepo repository.ItemRepository
	userRepo repository.UserRepository
	log      logger.Logger
}

func NewItemService(itemRepo repository.ItemRepository, userRepo repository.UserRepository, log logger.Logger) *ItemService {
	return &ItemService{itemRepo: itemRepo, userRepo: userRepo, log: log}
}

// Delete removes an item owned by requesterID.
func (s *ItemService) Delete(ctx context.Context, requesterID, itemID int64) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != requesterID {
		return model.ErrNotItemOwner
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return err
	}

	s.log.Info("item deleted", logger.Int64("item_id", itemID), logger.Int64("owner_id", requesterID))
	return nil
}

// ListByUsername returns a user's items newest first, or an empty list when
// the user does not exist.
func (s *ItemService) ListByUsername(ctx context.Context, username string) ([]model.Item, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.ListByOwner(ctx, user.ID)
}

func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error) {
	items, err := s.itemRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// Stats counts a user's items per type.
func (s *ItemService) Stats(ctx context.Context, username string) (*model.ItemStats, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.statsFor(ctx, user.ID)
}

func (s *ItemService) statsFor(ctx context.Context, ownerID int64) (*model.ItemStats, error) {
	counts, err := s.itemRepo.CountByType(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	stats := &model.ItemStats{}
	for _, c := range counts {
		switch c.Type {
		case model.ItemTypeArticle:
			stats.Article = c.Count
		case model.ItemTypeVideo:
			stats.Video = c.Count
		}
		stats.Total += c.Count
	}
	return stats, nil
}
