package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

type memEntry struct {
	id       string
	name     string
	parentID string
	folder   bool
	content  []byte
	version  int64
	modified time.Time
}

// Memory is an in-process Store with versioned objects. It backs the
// "memory" store mode and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	seq     atomic.Int64

	// BeforeUpdate, when set, runs inside UpdateContent before the version
	// check. Tests use it to interleave a competing writer.
	BeforeUpdate func(fileID string)

	folderCreates atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]*memEntry{}}
}

func (m *Memory) nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, m.seq.Add(1))
}

func (m *Memory) FolderCreates() int64 { return m.folderCreates.Load() }

func (m *Memory) find(name, parentID string, folder bool) *memEntry {
	for _, e := range m.entries {
		if e.folder == folder && e.name == name && e.parentID == parentID {
			return e
		}
	}
	return nil
}

func (m *Memory) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e := m.find(name, parentID, true); e != nil {
		return e.id, nil
	}
	return "", ErrNotFound
}

func (m *Memory) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.folderExists(parentID) {
		return "", ErrNotFound
	}
	id := m.nextID("folder")
	m.entries[id] = &memEntry{id: id, name: name, parentID: parentID, folder: true, modified: time.Now()}
	m.folderCreates.Add(1)
	return id, nil
}

func (m *Memory) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e := m.find(name, parentID, false); e != nil {
		return e.file(), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateFile(ctx context.Context, name, parentID string, content []byte, mimeType string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.folderExists(parentID) {
		return nil, ErrNotFound
	}
	if m.find(name, parentID, false) != nil {
		return nil, ErrConflict
	}
	id := m.nextID("file")
	e := &memEntry{
		id:       id,
		name:     name,
		parentID: parentID,
		content:  append([]byte(nil), content...),
		version:  1,
		modified: time.Now(),
	}
	m.entries[id] = e
	return e.file(), nil
}

func (m *Memory) GetContent(ctx context.Context, fileID string) ([]byte, *File, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[fileID]
	if !ok || e.folder {
		return nil, nil, ErrNotFound
	}
	return append([]byte(nil), e.content...), e.file(), nil
}

func (m *Memory) UpdateContent(ctx context.Context, fileID string, content []byte, ifVersion string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hook := m.BeforeUpdate; hook != nil {
		hook(fileID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[fileID]
	if !ok || e.folder {
		return nil, ErrNotFound
	}
	if ifVersion != "" && ifVersion != strconv.FormatInt(e.version, 10) {
		return nil, ErrConflict
	}
	e.content = append([]byte(nil), content...)
	e.version++
	e.modified = time.Now()
	return e.file(), nil
}

// folderExists reports whether parentID names a live folder. The empty id is
// the namespace root. Callers hold mu.
func (m *Memory) folderExists(parentID string) bool {
	if parentID == "" {
		return true
	}
	e, ok := m.entries[parentID]
	return ok && e.folder
}

// RemoveFolder deletes a folder and everything beneath it, the way a user
// trashing it in Drive would.
func (m *Memory) RemoveFolder(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doomed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for eid, e := range m.entries {
			if !doomed[eid] && doomed[e.parentID] {
				doomed[eid] = true
				grew = true
			}
		}
	}
	for eid := range doomed {
		delete(m.entries, eid)
	}
}

// Content returns a file's body by folder and name, for assertions.
func (m *Memory) Content(name, parentID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e := m.find(name, parentID, false); e != nil {
		return string(e.content), true
	}
	return "", false
}

// Files lists file names under parentID whose name starts with prefix.
func (m *Memory) Files(parentID, prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, e := range m.entries {
		if !e.folder && e.parentID == parentID && strings.HasPrefix(e.name, prefix) {
			out = append(out, e.name)
		}
	}
	return out
}

func (e *memEntry) file() *File {
	return &File{
		ID:       e.id,
		Name:     e.name,
		ParentID: e.parentID,
		Version:  strconv.FormatInt(e.version, 10),
		Modified: e.modified,
	}
}

// MemoryConnector hands each vault-enabled user a private Memory namespace.
type MemoryConnector struct {
	mu     sync.Mutex
	stores map[string]*Memory
}

func NewMemoryConnector() *MemoryConnector {
	return &MemoryConnector{stores: map[string]*Memory{}}
}

func (c *MemoryConnector) Connect(ctx context.Context, user *types.User) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil || (!user.VaultEnabled && strings.TrimSpace(user.DriveRefreshToken) == "") {
		return nil, ErrNotConnected
	}
	return c.For(user.ID), nil
}

// For returns (creating if needed) the namespace of userID.
func (c *MemoryConnector) For(userID string) *Memory {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.stores[userID]
	if !ok {
		m = NewMemory()
		c.stores[userID] = m
	}
	return m
}
