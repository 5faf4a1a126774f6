package locker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// LockTTL caps how long a crashed checkout can hold a cart.
	LockTTL = 30 * time.Second

	retryInterval = 100 * time.Millisecond
)

// RedisCartLocker serializes checkouts per cart with a keyed TTL lock.
// Lock spins until the key is free or ctx is done, so the loser of a
// concurrent checkout proceeds after the winner finishes and then sees
// the drained cart.
type RedisCartLocker struct {
	client *redis.Client
}

func NewRedisCartLocker(addr string) *RedisCartLocker {
	return &RedisCartLocker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (l *RedisCartLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("techshop:checkout:cart:%d", userID)
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	release := func() {
		// only delete our own token, a TTL expiry may have handed the
		// lock to someone else in the meantime
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		if err := l.client.Eval(context.Background(), script, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("failed to release cart lock %s: %v", key, err)
		}
	}
	return release, nil
}

func (l *RedisCartLocker) Close() error {
	return l.client.Close()
}
