package model

import (
	"errors"
	"time"
)

// Item types accepted by the ingestion pipeline.
const (
	ItemTypeArticle = "article"
	ItemTypeVideo   = "video"
)

// Item is one bookmarked article or video.
type Item struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	URL       string    `db:"url" json:"url"` // canonical form, may be empty
	Type      string    `db:"type" json:"type"`
	Summary   *string   `db:"summary" json:"summary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined field (not in items table)
	OwnerUsername string `db:"owner_username" json:"owner_username,omitempty"`
}

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Type     string `json:"type"`
}

// ItemStats counts a user's bookmarks by type.
type ItemStats struct {
	Article int `json:"article"`
	Video   int `json:"video"`
	Total   int `json:"total"`
}

// ItemCount is one row of a per-type count query.
type ItemCount struct {
	Type  string `db:"type"`
	Count int    `db:"count"`
}

// IsValidItemType reports whether t is a supported item type.
func IsValidItemType(t string) bool {
	return t == ItemTypeArticle || t == ItemTypeVideo
}

const MaxItemTitleLength = 500

// Item errors
var (
	ErrItemNotFound       = errors.New("item not found")
	ErrNotItemOwner       = errors.New("not the owner of this item")
	ErrItemAlreadyTracked = errors.New("item already tracked")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title too long")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidItemType    = errors.New("type must be 'article' or 'video'")
)
