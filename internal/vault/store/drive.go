package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

const (
	driveFolderMime = "application/vnd.google-apps.folder"
	driveFileFields = "id,name,parents,version,modifiedTime"
)

// DriveConnector opens the user's own Google Drive with their stored refresh
// token. Only files the app created are visible (drive.file scope).
type DriveConnector struct {
	oauth *oauth2.Config
	opts  []option.ClientOption
}

func NewDriveConnector(clientID, clientSecret string, opts ...option.ClientOption) *DriveConnector {
	return &DriveConnector{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveFileScope},
		},
		opts: opts,
	}
}

func (c *DriveConnector) Connect(ctx context.Context, user *types.User) (Store, error) {
	if user == nil || strings.TrimSpace(user.DriveRefreshToken) == "" {
		return nil, ErrNotConnected
	}
	// The token source outlives this call; refreshes must not die with ctx.
	ts := c.oauth.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: user.DriveRefreshToken})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: new service: %w", err)
	}
	return &driveStore{svc: svc}, nil
}

type driveStore struct {
	svc *drive.Service
}

func driveParent(parentID string) string {
	if parentID == "" {
		return "root"
	}
	return parentID
}

func (s *driveStore) list(ctx context.Context, name, parentID string, folder bool) (*drive.File, error) {
	mimeClause := "mimeType != '" + driveFolderMime + "'"
	if folder {
		mimeClause = "mimeType = '" + driveFolderMime + "'"
	}
	q := fmt.Sprintf("name = '%s' and '%s' in parents and %s and trashed = false",
		escapeDriveQuery(name), escapeDriveQuery(driveParent(parentID)), mimeClause)

	res, err := s.svc.Files.List().
		Q(q).
		Spaces("drive").
		PageSize(1).
		Fields("files(" + driveFileFields + ")").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapDriveError(err)
	}
	if len(res.Files) == 0 {
		return nil, ErrNotFound
	}
	return res.Files[0], nil
}

func (s *driveStore) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	f, err := s.list(ctx, name, parentID, true)
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (s *driveStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: driveFolderMime,
		Parents:  []string{driveParent(parentID)},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", mapDriveError(err)
	}
	return f.Id, nil
}

func (s *driveStore) FindFile(ctx context.Context, name, parentID string) (*File, error) {
	f, err := s.list(ctx, name, parentID, false)
	if err != nil {
		return nil, err
	}
	return driveFile(f), nil
}

func (s *driveStore) CreateFile(ctx context.Context, name, parentID string, content []byte, mimeType string) (*File, error) {
	if parentID != "" {
		// Drive accepts children of a trashed folder, which would hide the
		// file from the user.
		parent, err := s.svc.Files.Get(parentID).Fields("id,trashed").Context(ctx).Do()
		if err != nil {
			return nil, mapDriveError(err)
		}
		if parent.Trashed {
			return nil, ErrNotFound
		}
	}
	f, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{driveParent(parentID)},
	}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields(driveFileFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapDriveError(err)
	}
	return driveFile(f), nil
}

func (s *driveStore) GetContent(ctx context.Context, fileID string) ([]byte, *File, error) {
	meta, err := s.svc.Files.Get(fileID).Fields(driveFileFields).Context(ctx).Do()
	if err != nil {
		return nil, nil, mapDriveError(err)
	}
	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, nil, mapDriveError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return body, driveFile(meta), nil
}

// UpdateContent checks the version before uploading. Drive v3 has no
// conditional update, so a window remains between the check and the write;
// the adapter's per-file lock covers it.
func (s *driveStore) UpdateContent(ctx context.Context, fileID string, content []byte, ifVersion string) (*File, error) {
	if ifVersion != "" {
		meta, err := s.svc.Files.Get(fileID).Fields("id,version").Context(ctx).Do()
		if err != nil {
			return nil, mapDriveError(err)
		}
		if strconv.FormatInt(meta.Version, 10) != ifVersion {
			return nil, ErrConflict
		}
	}
	f, err := s.svc.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeFor(fileID))).
		Fields(driveFileFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapDriveError(err)
	}
	return driveFile(f), nil
}

func driveFile(f *drive.File) *File {
	out := &File{
		ID:      f.Id,
		Name:    f.Name,
		Version: strconv.FormatInt(f.Version, 10),
	}
	if len(f.Parents) > 0 {
		out.ParentID = f.Parents[0]
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.Modified = t
	}
	return out
}

func escapeDriveQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func mapDriveError(err error) error {
	if err == nil {
		return nil
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		case http.StatusPreconditionFailed:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}
