package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

// GCSConnector keeps every user's vault inside one service bucket under
// users/<id>/. Folders are zero-byte placeholder objects ending in "/";
// object generations are the version tokens.
type GCSConnector struct {
	client *storage.Client
	bucket string
}

func NewGCSConnector(client *storage.Client, bucket string) *GCSConnector {
	return &GCSConnector{client: client, bucket: strings.TrimSpace(bucket)}
}

func (c *GCSConnector) Connect(ctx context.Context, user *types.User) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil || !user.VaultEnabled || strings.TrimSpace(user.ID) == "" {
		return nil, ErrNotConnected
	}
	return &gcsStore{
		bkt:    c.client.Bucket(c.bucket),
		prefix: "users/" + user.ID + "/",
	}, nil
}

type gcsStore struct {
	bkt    *storage.BucketHandle
	prefix string
}

func (s *gcsStore) folderKey(name, parentID string) string {
	parent := parentID
	if parent == "" {
		parent = s.prefix
	}
	return parent + cleanName(name) + "/"
}

func (s *gcsStore) fileKey(name, parentID string) string {
	parent := parentID
	if parent == "" {
		parent = s.prefix
	}
	return parent + cleanName(name)
}

func (s *gcsStore) owns(key string) bool {
	return strings.HasPrefix(key, s.prefix)
}

func (s *gcsStore) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	key := s.folderKey(name, parentID)
	if !s.owns(key) {
		return "", ErrNotFound
	}
	if _, err := s.bkt.Object(key).Attrs(ctx); err != nil {
		return "", mapGCSError(err)
	}
	return key, nil
}

func (s *gcsStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := s.folderKey(name, parentID)
	if !s.owns(key) {
		return "", ErrNotFound
	}
	w := s.bkt.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/x-directory"
	if err := w.Close(); err != nil {
		// A placeholder that already exists is the folder we wanted.
		if errors.Is(mapGCSError(err), ErrConflict) {
			return key, nil
		}
		return "", mapGCSError(err)
	}
	return key, nil
}

func (s *gcsStore) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	key := s.fileKey(name, parentID)
	if !s.owns(key) {
		return nil, ErrNotFound
	}
	attrs, err := s.bkt.Object(key).Attrs(ctx)
	if err != nil {
		return nil, mapGCSError(err)
	}
	return gcsFile(attrs.Name, attrs.Generation, attrs), nil
}

func (s *gcsStore) CreateFile(ctx context.Context, name, parentID string, content []byte, mimeType string) (*File, error) {
	key := s.fileKey(name, parentID)
	if !s.owns(key) {
		return nil, ErrNotFound
	}
	return s.write(ctx, s.bkt.Object(key).If(storage.Conditions{DoesNotExist: true}), content, mimeType)
}

func (s *gcsStore) GetContent(ctx context.Context, fileID string) ([]byte, *File, error) {
	if !s.owns(fileID) {
		return nil, nil, ErrNotFound
	}
	r, err := s.bkt.Object(fileID).NewReader(ctx)
	if err != nil {
		return nil, nil, mapGCSError(err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	f := &File{
		ID:       fileID,
		Name:     path.Base(fileID),
		ParentID: path.Dir(fileID) + "/",
		Version:  strconv.FormatInt(r.Attrs.Generation, 10),
		Modified: r.Attrs.LastModified,
	}
	return body, f, nil
}

func (s *gcsStore) UpdateContent(ctx context.Context, fileID string, content []byte, ifVersion string) (*File, error) {
	if !s.owns(fileID) {
		return nil, ErrNotFound
	}
	obj := s.bkt.Object(fileID)
	if ifVersion != "" {
		gen, err := strconv.ParseInt(ifVersion, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gcs: bad version token %q: %w", ifVersion, err)
		}
		obj = obj.If(storage.Conditions{GenerationMatch: gen})
	}
	return s.write(ctx, obj, content, mimeFor(fileID))
}

func (s *gcsStore) write(ctx context.Context, obj *storage.ObjectHandle, content []byte, mimeType string) (*File, error) {
	w := obj.NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return nil, mapGCSError(err)
	}
	if err := w.Close(); err != nil {
		return nil, mapGCSError(err)
	}
	attrs := w.Attrs()
	return gcsFile(attrs.Name, attrs.Generation, attrs), nil
}

func gcsFile(name string, gen int64, attrs *storage.ObjectAttrs) *File {
	f := &File{
		ID:       name,
		Name:     path.Base(name),
		ParentID: path.Dir(name) + "/",
		Version:  strconv.FormatInt(gen, 10),
	}
	if attrs != nil {
		f.Modified = attrs.Updated
	}
	return f
}

func mapGCSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return ErrNotFound
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusPreconditionFailed:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
	}
	return err
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	return name
}

func mimeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return MimeCSV
	case strings.HasSuffix(name, ".md"):
		return MimeMarkdown
	default:
		return "application/octet-stream"
	}
}
