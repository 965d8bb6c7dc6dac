package vault

import (
	"container/list"
	"sync"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

// folderCache is a bounded LRU of userID -> partition folder ids with a TTL,
// sitting in front of the user record.
type folderCache struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List
	items map[string]*list.Element
	now   func() time.Time
}

type cacheEntry struct {
	userID  string
	folders map[types.Partition]string
	expires time.Time
}

func newFolderCache(capacity int, ttl time.Duration) *folderCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &folderCache{
		cap:   capacity,
		ttl:   ttl,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   time.Now,
	}
}

func (c *folderCache) Get(userID string) (map[types.Partition]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[userID]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().After(e.expires) {
		c.ll.Remove(el)
		delete(c.items, userID)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return copyFolders(e.folders), true
}

func (c *folderCache) Put(userID string, folders map[types.Partition]string) {
	if len(folders) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if el, ok := c.items[userID]; ok {
		e := el.Value.(*cacheEntry)
		e.folders = copyFolders(folders)
		e.expires = exp
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{userID: userID, folders: copyFolders(folders), expires: exp})
	c.items[userID] = el
	for c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.items, last.Value.(*cacheEntry).userID)
	}
}

func (c *folderCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[userID]; ok {
		c.ll.Remove(el)
		delete(c.items, userID)
	}
}

func (c *folderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func copyFolders(in map[types.Partition]string) map[types.Partition]string {
	out := make(map[types.Partition]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
