package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionBusy is returned when another turn already holds the session
// lock and it did not free up within the wait window.
var ErrSessionBusy = errors.New("another turn is already running for this session")

// sessionLocker is the distributed lock serializing turns on one session
// across instances. Acquire is a set-if-absent with a TTL; Release must
// only delete the key while it still carries the caller's token.
type sessionLocker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// releaseLockScript deletes the lock key only when it still holds the
// caller's token. Without the guard, a turn that outlived its TTL would
// delete the lock a newer turn has since acquired.
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

type redisSessionLock struct {
	client *redis.Client
}

func newRedisSessionLock(client *redis.Client) sessionLocker {
	return &redisSessionLock{client: client}
}

func (l *redisSessionLock) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, token, ttl).Result()
}

func (l *redisSessionLock) Release(ctx context.Context, key, token string) error {
	return releaseLockScript.Run(ctx, l.client, []string{key}, token).Err()
}
