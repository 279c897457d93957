// Package cache holds short-lived coordination state kept in Redis. Nothing
// here is a source of truth: every entry expires and callers must behave
// correctly when Redis is absent.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"readwatch/internal/logger"
)

const (
	inflightKeyPrefix = "readwatch:ingest:"
	pollInterval      = 200 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InflightGuard marks an (owner, canonical URL) ingestion as in progress so a
// concurrent identical submission can wait for it instead of calling the
// summarizer a second time. A nil guard, or one without a client, admits
// every caller.
type InflightGuard struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

func NewInflightGuard(rdb *redis.Client, ttl time.Duration, log logger.Logger) *InflightGuard {
	return &InflightGuard{rdb: rdb, ttl: ttl, log: log}
}

func inflightKey(ownerID int64, url string) string {
	return fmt.Sprintf("%s%d:%s", inflightKeyPrefix, ownerID, url)
}

func noop() {}

// Acquire tries to claim the ingestion. It returns acquired=false only when
// another holder is known to exist; Redis errors admit the caller. release is
// always non-nil.
func (g *InflightGuard) Acquire(ctx context.Context, ownerID int64, url string) (release func(), acquired bool) {
	if g == nil || g.rdb == nil {
		return noop, true
	}

	key := inflightKey(ownerID, url)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		g.log.Warn("inflight guard unavailable", logger.String("key", key), logger.Error(err))
		return noop, true
	}
	if !ok {
		return noop, false
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, g.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			g.log.Warn("inflight guard release failed", logger.String("key", key), logger.Error(err))
		}
	}, true
}

// WaitReleased blocks until the claim on (ownerID, url) disappears, maxWait
// elapses or ctx ends. It reports whether the claim was released.
func (g *InflightGuard) WaitReleased(ctx context.Context, ownerID int64, url string, maxWait time.Duration) bool {
	if g == nil || g.rdb == nil {
		return true
	}

	key := inflightKey(ownerID, url)
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		n, err := g.rdb.Exists(ctx, key).Result()
		if err != nil {
			g.log.Warn("inflight guard poll failed", logger.String("key", key), logger.Error(err))
			return false
		}
		if n == 0 {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}
