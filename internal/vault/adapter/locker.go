package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/vaultvoice-backend/internal/platform/httpx"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

// Locker is a lock shared across replicas. The in-process keyed mutex is
// always taken first; a Locker only adds cross-process exclusion.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was re-taken is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockClient is the part of a redis client the locker needs. *goredis.Client
// satisfies it.
type LockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	goredis.Scripter
}

type RedisLocker struct {
	rdb    LockClient
	log    *logger.Logger
	ttl    time.Duration
	poll   time.Duration
	prefix string
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisLocker(rdb LockClient, log *logger.Logger, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{
		rdb:    rdb,
		log:    log.With("service", "RedisLocker"),
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		prefix: "vaultvoice:lock:",
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if err := httpx.Sleep(ctx, httpx.JitterSleep(l.poll)); err != nil {
			return nil, err
		}
	}
	return func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.rdb, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn("redis lock release failed", "key", key, "error", err)
		}
	}, nil
}
