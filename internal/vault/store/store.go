// Package store is the cloud file API the vault is built on: folders and
// whole-object files addressed by exact name under a parent.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrConflict     = errors.New("store: version conflict")
	ErrNotConnected = errors.New("store: user has no vault credentials")
)

const (
	MimeCSV      = "text/csv"
	MimeMarkdown = "text/markdown"
)

type File struct {
	ID       string
	Name     string
	ParentID string
	// Version is an opaque token; passing it back to UpdateContent makes the
	// write conditional on nobody having written since.
	Version  string
	Modified time.Time
}

// Store operates inside one user's namespace. An empty parentID means the
// namespace root.
type Store interface {
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	FindFile(ctx context.Context, name, parentID string) (*File, error)
	CreateFile(ctx context.Context, name, parentID string, content []byte, mimeType string) (*File, error)
	GetContent(ctx context.Context, fileID string) ([]byte, *File, error)
	// UpdateContent replaces the whole object. A non-empty ifVersion that no
	// longer matches yields ErrConflict.
	UpdateContent(ctx context.Context, fileID string, content []byte, ifVersion string) (*File, error)
}

// Connector opens a Store for a user, or returns ErrNotConnected when the user
// has no usable credentials.
type Connector interface {
	Connect(ctx context.Context, user *types.User) (Store, error)
}
