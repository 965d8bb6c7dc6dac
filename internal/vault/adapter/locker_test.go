package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

// fakeRedis keeps SET NX and the compare-and-delete release script in a map.
// Unused Scripter methods stay nil and would panic if reached.
type fakeRedis struct {
	goredis.Scripter

	mu      sync.Mutex
	keys    map[string]string
	setNX   int
	evals   int
	failSet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setNX++
	if f.failSet != nil {
		return goredis.NewBoolResult(false, f.failSet)
	}
	if _, held := f.keys[key]; held {
		return goredis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *goredis.Cmd {
	return f.release(keys, args)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd {
	return f.release(keys, args)
}

func (f *fakeRedis) release(keys []string, args []interface{}) *goredis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	if f.keys[keys[0]] == args[0].(string) {
		delete(f.keys, keys[0])
		return goredis.NewCmdResult(int64(1), nil)
	}
	return goredis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) holder(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.keys[key]
	return v, ok
}

func newFakeLocker(rdb *fakeRedis) *RedisLocker {
	l := NewRedisLocker(rdb, logger.Nop(), time.Second)
	l.poll = time.Millisecond
	return l
}

func TestRedisLockerWaitsForHolder(t *testing.T) {
	rdb := newFakeRedis()
	l := newFakeLocker(rdb)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "u1/Sleep/sleep_log.csv")
	require.NoError(t, err)

	acquired := make(chan func(), 1)
	go func() {
		second, err := l.Acquire(ctx, "u1/Sleep/sleep_log.csv")
		if err != nil {
			close(acquired)
			return
		}
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while the lock was held")
	case <-time.After(30 * time.Millisecond):
	}

	release()
	select {
	case second, ok := <-acquired:
		require.True(t, ok, "second Acquire failed")
		second()
	case <-time.After(2 * time.Second):
		t.Fatal("second Acquire never got the lock")
	}

	_, held := rdb.holder("vaultvoice:lock:u1/Sleep/sleep_log.csv")
	assert.False(t, held)
	assert.Greater(t, rdb.setNX, 2, "waiter should have polled")
}

func TestRedisLockerHonorsContext(t *testing.T) {
	rdb := newFakeRedis()
	l := newFakeLocker(rdb)

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLockerReleaseOnlyDropsOwnToken(t *testing.T) {
	rdb := newFakeRedis()
	l := newFakeLocker(rdb)

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	// Our TTL lapsed and another replica took the lock.
	rdb.mu.Lock()
	rdb.keys["vaultvoice:lock:k"] = "other-replica"
	rdb.mu.Unlock()

	release()
	holder, held := rdb.holder("vaultvoice:lock:k")
	assert.True(t, held)
	assert.Equal(t, "other-replica", holder)
	assert.Equal(t, 1, rdb.evals)
}

func TestRedisLockerSurfacesRedisErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failSet = errors.New("connection refused")
	l := newFakeLocker(rdb)

	_, err := l.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
