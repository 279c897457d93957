package service

import (
	"context"
	"errors"
	"testing"

	"readwatch/internal/model"
)

func TestFollowService_Rules(t *testing.T) {
	env := newTestEnv()
	alice := env.mustRegister("alice")
	bob := env.mustRegister("bob")
	ctx := context.Background()

	if err := env.follows.Follow(ctx, alice.ID, alice.ID); !errors.Is(err, model.ErrCannotFollowSelf) {
		t.Errorf("self follow error = %v, want ErrCannotFollowSelf", err)
	}

	if err := env.follows.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("first follow: %v", err)
	}
	if err := env.follows.Follow(ctx, bob.ID, alice.ID); !errors.Is(err, model.ErrAlreadyFollowing) {
		t.Errorf("duplicate follow error = %v, want ErrAlreadyFollowing", err)
	}

	if err := env.follows.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, model.ErrNotFollowing) {
		t.Errorf("unfollow without edge error = %v, want ErrNotFollowing", err)
	}

	if err := env.follows.Follow(ctx, bob.ID, 999); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("follow missing user error = %v, want ErrUserNotFound", err)
	}

	ok, err := env.follows.IsFollowing(ctx, bob.ID, alice.ID)
	if err != nil || !ok {
		t.Errorf("IsFollowing(bob, alice) = %v, %v; want true", ok, err)
	}
	ok, _ = env.follows.IsFollowing(ctx, alice.ID, bob.ID)
	if ok {
		t.Error("follow edges are directed")
	}

	if err := env.follows.Unfollow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := env.follows.Unfollow(ctx, bob.ID, alice.ID); !errors.Is(err, model.ErrNotFollowing) {
		t.Errorf("second unfollow error = %v, want ErrNotFollowing", err)
	}
}

func TestFollowService_Sets(t *testing.T) {
	env := newTestEnv()
	alice := env.mustRegister("alice")
	bob := env.mustRegister("bob")
	carol := env.mustRegister("carol")
	ctx := context.Background()

	for _, f := range [][2]int64{{bob.ID, alice.ID}, {carol.ID, alice.ID}, {alice.ID, carol.ID}} {
		if err := env.follows.Follow(ctx, f[0], f[1]); err != nil {
			t.Fatalf("follow %v: %v", f, err)
		}
	}

	followers, err := env.follows.Followers(ctx, alice.ID)
	if err != nil || len(followers) != 2 {
		t.Errorf("Followers(alice) = %v, %v; want 2 ids", followers, err)
	}
	following, err := env.follows.Following(ctx, alice.ID)
	if err != nil || len(following) != 1 || following[0] != carol.ID {
		t.Errorf("Following(alice) = %v, %v; want [carol]", following, err)
	}

	names, err := env.follows.FollowerUsernames(ctx, alice.ID)
	if err != nil || len(names.Usernames) != 2 {
		t.Errorf("FollowerUsernames(alice) = %v, %v", names, err)
	}
	names, err = env.follows.FollowingUsernames(ctx, bob.ID)
	if err != nil || len(names.Usernames) != 1 || names.Usernames[0] != "alice" {
		t.Errorf("FollowingUsernames(bob) = %v, %v", names, err)
	}
}
