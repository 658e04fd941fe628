package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	platformredis "veris/internal/platform/redis"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// Locker serializes writers per application. Step-completion events and
// submission must hold the lock for the aggregate they mutate.
type Locker interface {
	// Acquire blocks until the lock is held or the context is done.
	// The returned function releases the lock.
	Acquire(ctx context.Context, appID id.ApplicationID) (release func(), err error)
}

// MutexLocker is the in-process Locker used when Redis is not
// configured. Correct for a single instance only.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[id.ApplicationID]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[id.ApplicationID]*sync.Mutex)}
}

func (l *MutexLocker) Acquire(_ context.Context, appID id.ApplicationID) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[appID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[appID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// releaseScript deletes the lease only when the caller still owns it,
// so an expired holder cannot release a successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLocker serializes writers across instances with a leased Redis
// key per application.
type RedisLocker struct {
	client *platformredis.Client
}

func NewRedisLocker(client *platformredis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, appID id.ApplicationID) (func(), error) {
	key := "veris:applock:" + appID.String()
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "acquire application lock")
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "acquire application lock")
		case <-time.After(lockRetryWait):
		}
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.client.Eval(releaseCtx, releaseScript, []string{key}, token)
	}
	return release, nil
}
