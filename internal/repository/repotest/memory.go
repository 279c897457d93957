// Package repotest provides an in-memory implementation of the repository
// interfaces for tests. It mirrors the uniqueness, self-follow and
// foreign-key rules the Postgres schema enforces.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"readwatch/internal/model"
	"readwatch/internal/repository"
)

// Store holds users, items and follows behind one mutex.
type Store struct {
	mu      sync.Mutex
	users   []model.User
	items   []model.Item
	follows []model.Follow
	nextID  int64
	clock   time.Time
}

// NewStore returns an empty store whose clock starts at 2024-01-01 UTC and
// advances one second per insert, so created_at values are strictly increasing.
func NewStore() *Store {
	return &Store{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Users returns the store as a repository.UserRepository.
func (db *Store) Users() repository.UserRepository { return memUsers{db} }

// Items returns the store as a repository.ItemRepository.
func (db *Store) Items() repository.ItemRepository { return memItems{db} }

// Follows returns the store as a repository.FollowRepository.
func (db *Store) Follows() repository.FollowRepository { return memFollows{db} }

// ItemCount reports how many items are stored.
func (db *Store) ItemCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.items)
}

func (db *Store) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *Store) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *Store) usernameOf(id int64) string {
	for _, u := range db.users {
		if u.ID == id {
			return u.Username
		}
	}
	return ""
}

func (db *Store) withOwner(it model.Item) model.Item {
	it.OwnerUsername = db.usernameOf(it.OwnerID)
	return it
}

type memUsers struct{ db *Store }
type memItems struct{ db *Store }
type memFollows struct{ db *Store }

func (r memUsers) Create(ctx context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Username == u.Username {
			return model.ErrUsernameExists
		}
	}
	u.ID = r.db.id()
	u.CreatedAt = r.db.tick()
	r.db.users = append(r.db.users, *u)
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memItems) FindByOwnerAndURL(ctx context.Context, ownerID int64, url string) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, it := range r.db.items {
		if url != "" && it.OwnerID == ownerID && it.URL == url {
			it := r.db.withOwner(it)
			return &it, nil
		}
	}
	return nil, model.ErrItemNotFound
}

func (r memItems) Create(ctx context.Context, item *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.usernameOf(item.OwnerID) == "" {
		return model.ErrUserNotFound
	}
	for _, it := range r.db.items {
		if item.URL != "" && it.OwnerID == item.OwnerID && it.URL == item.URL {
			return model.ErrItemAlreadyTracked
		}
	}
	item.ID = r.db.id()
	item.CreatedAt = r.db.tick()
	r.db.items = append(r.db.items, *item)
	return nil
}

func (r memItems) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, it := range r.db.items {
		if it.ID == id {
			it := r.db.withOwner(it)
			return &it, nil
		}
	}
	return nil, model.ErrItemNotFound
}

func (r memItems) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, it := range r.db.items {
		if it.ID == id {
			r.db.items = append(r.db.items[:i], r.db.items[i+1:]...)
			return nil
		}
	}
	return model.ErrItemNotFound
}

func (r memItems) ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error) {
	return r.ListByOwners(ctx, []int64{ownerID}, 1<<30)
}

func (r memItems) ListByOwners(ctx context.Context, ownerIDs []int64, limit int) ([]model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	owners := map[int64]bool{}
	for _, id := range ownerIDs {
		owners[id] = true
	}
	out := []model.Item{}
	for _, it := range r.db.items {
		if owners[it.OwnerID] {
			out = append(out, r.db.withOwner(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memItems) CountByType(ctx context.Context, ownerID int64) ([]model.ItemCount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	byType := map[string]int{}
	for _, it := range r.db.items {
		if it.OwnerID == ownerID {
			byType[it.Type]++
		}
	}
	var out []model.ItemCount
	for typ, n := range byType {
		out = append(out, model.ItemCount{Type: typ, Count: n})
	}
	return out, nil
}

func (r memFollows) Create(ctx context.Context, followerID, followeeID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if followerID == followeeID {
		return false, model.ErrCannotFollowSelf
	}
	for _, f := range r.db.follows {
		if f.FollowerID == followerID && f.FolloweeID == followeeID {
			return false, nil
		}
	}
	r.db.follows = append(r.db.follows, model.Follow{
		ID: r.db.id(), FollowerID: followerID, FolloweeID: followeeID, CreatedAt: r.db.tick(),
	})
	return true, nil
}

func (r memFollows) Delete(ctx context.Context, followerID, followeeID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, f := range r.db.follows {
		if f.FollowerID == followerID && f.FolloweeID == followeeID {
			r.db.follows = append(r.db.follows[:i], r.db.follows[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFollowing
}

func (r memFollows) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.follows {
		if f.FollowerID == followerID && f.FolloweeID == followeeID {
			return true, nil
		}
	}
	return false, nil
}

func (r memFollows) GetFollowerIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ids := []int64{}
	for _, f := range r.db.follows {
		if f.FolloweeID == userID {
			ids = append(ids, f.FollowerID)
		}
	}
	return ids, nil
}

func (r memFollows) GetFolloweeIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ids := []int64{}
	for _, f := range r.db.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FolloweeID)
		}
	}
	return ids, nil
}

func (r memFollows) ListFollowers(ctx context.Context, userID int64) ([]string, error) {
	ids, _ := r.GetFollowerIDs(ctx, userID)
	return r.names(ids), nil
}

func (r memFollows) ListFollowing(ctx context.Context, userID int64) ([]string, error) {
	ids, _ := r.GetFolloweeIDs(ctx, userID)
	return r.names(ids), nil
}

func (r memFollows) names(ids []int64) []string {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []string{}
	for _, id := range ids {
		out = append(out, r.db.usernameOf(id))
	}
	return out
}

func (r memFollows) Counts(ctx context.Context, userID int64) (int, int, error) {
	followers, _ := r.GetFollowerIDs(ctx, userID)
	following, _ := r.GetFolloweeIDs(ctx, userID)
	return len(followers), len(following), nil
}
