package model

import (
	"errors"
	"time"
)

// User is an account that owns bookmarks. Credentials live elsewhere.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Username string `json:"username"`
}

// ProfileResponse is a user plus follow-graph counts seen by a viewer.
type ProfileResponse struct {
	*User
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidUsername is returned for usernames outside the allowed length or charset
	ErrInvalidUsername = errors.New("username must be 3-32 characters of letters, digits, '.', '_' or '-'")
)
