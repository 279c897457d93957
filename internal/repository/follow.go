package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"readwatch/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge and reports whether a row was written. A duplicate
// edge is absorbed by the unique constraint and returns false.
func (r *followRepository) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		switch pgCode(err) {
		case pgCheckViolation:
			return false, model.ErrCannotFollowSelf
		case pgForeignKeyViolation:
			return false, model.ErrUserNotFound
		}
		return false, fmt.Errorf("failed to create follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	result, err := r.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFollowing
	}

	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

func (r *followRepository) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `SELECT follower_id FROM follows WHERE followee_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `SELECT followee_id FROM follows WHERE follower_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get followee ids: %w", err)
	}
	return ids, nil
}

// ListFollowers returns the usernames following userID, most recent first.
func (r *followRepository) ListFollowers(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT u.username
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return names, nil
}

// ListFollowing returns the usernames userID follows, most recent first.
func (r *followRepository) ListFollowing(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT u.username
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC, f.id DESC
	`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return names, nil
}

func (r *followRepository) Counts(ctx context.Context, userID int64) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1) AS followers,
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1) AS following
	`
	var counts struct {
		Followers int `db:"followers"`
		Following int `db:"following"`
	}
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return 0, 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return counts.Followers, counts.Following, nil
}
