package repository

import (
	"context"

	"readwatch/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type ItemRepository interface {
	// FindByOwnerAndURL returns model.ErrItemNotFound when the owner has no item with that canonical URL.
	FindByOwnerAndURL(ctx context.Context, ownerID int64, url string) (*model.Item, error)
	// Create returns model.ErrItemAlreadyTracked when the per-owner URL constraint suppressed the insert.
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error)
	ListByOwners(ctx context.Context, ownerIDs []int64, limit int) ([]model.Item, error)
	CountByType(ctx context.Context, ownerID int64) ([]model.ItemCount, error)
}

type FollowRepository interface {
	Create(ctx context.Context, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error)
	GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error)
	ListFollowers(ctx context.Context, userID int64) ([]string, error)
	ListFollowing(ctx context.Context, userID int64) ([]string, error)
	Counts(ctx context.Context, userID int64) (followers, following int, err error)
}
