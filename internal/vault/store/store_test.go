package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

func TestMemoryVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	root, err := m.CreateFolder(ctx, "VaultVoice", "")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if got, err := m.FindFolder(ctx, "VaultVoice", ""); err != nil || got != root {
		t.Fatalf("FindFolder=(%q,%v), want %q", got, err, root)
	}
	if _, err := m.FindFolder(ctx, "VaultVoice", root); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nested lookup: want ErrNotFound, got %v", err)
	}

	f, err := m.CreateFile(ctx, "a.csv", root, []byte("h\n"), MimeCSV)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := m.CreateFile(ctx, "a.csv", root, nil, MimeCSV); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create: want ErrConflict, got %v", err)
	}

	body, cur, err := m.GetContent(ctx, f.ID)
	if err != nil || string(body) != "h\n" {
		t.Fatalf("GetContent=(%q,%v)", body, err)
	}
	if _, err := m.UpdateContent(ctx, f.ID, []byte("h\n1\n"), cur.Version); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if _, err := m.UpdateContent(ctx, f.ID, []byte("h\n2\n"), cur.Version); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale version: want ErrConflict, got %v", err)
	}
	if _, err := m.UpdateContent(ctx, f.ID, []byte("h\n3\n"), ""); err != nil {
		t.Fatalf("unconditional update: %v", err)
	}
	if got, _ := m.Content("a.csv", root); got != "h\n3\n" {
		t.Fatalf("content=%q", got)
	}
}

func TestMemoryRejectsChildrenOfMissingFolder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	root, _ := m.CreateFolder(ctx, "VaultVoice", "")
	sleep, _ := m.CreateFolder(ctx, "Sleep", root)
	if _, err := m.CreateFile(ctx, "sleep_log.csv", sleep, []byte("h\n"), MimeCSV); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	m.RemoveFolder(root)
	if _, ok := m.Content("sleep_log.csv", sleep); ok {
		t.Fatalf("RemoveFolder left a nested file behind")
	}
	if _, err := m.CreateFile(ctx, "sleep_log.csv", sleep, nil, MimeCSV); !errors.Is(err, ErrNotFound) {
		t.Fatalf("create under removed folder: want ErrNotFound, got %v", err)
	}
	if _, err := m.CreateFolder(ctx, "Sleep", "folder-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("folder under unknown parent: want ErrNotFound, got %v", err)
	}
}

func TestMemoryConnectorRequiresCredentials(t *testing.T) {
	c := NewMemoryConnector()
	ctx := context.Background()
	if _, err := c.Connect(ctx, &types.User{ID: "u1"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got %v", err)
	}
	if _, err := c.Connect(ctx, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("nil user: want ErrNotConnected, got %v", err)
	}
	s1, err := c.Connect(ctx, &types.User{ID: "u1", VaultEnabled: true})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s1 != Store(c.For("u1")) {
		t.Fatalf("Connect should return the user's namespace")
	}
	if c.For("u2") == c.For("u1") {
		t.Fatalf("users must not share a namespace")
	}
}

func TestEscapeDriveQuery(t *testing.T) {
	if got := escapeDriveQuery(`Bob's \ log`); got != `Bob\'s \\ log` {
		t.Fatalf("escapeDriveQuery=%q", got)
	}
}

func TestMapDriveError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "not_found", err: &googleapi.Error{Code: http.StatusNotFound}, want: ErrNotFound},
		{name: "unauthorized", err: &googleapi.Error{Code: http.StatusUnauthorized}, want: ErrNotConnected},
		{name: "refresh_failed", err: fmt.Errorf("wrap: %w", &oauth2.RetrieveError{}), want: ErrNotConnected},
		{name: "precondition", err: &googleapi.Error{Code: http.StatusPreconditionFailed}, want: ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapDriveError(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("mapDriveError=%v, want %v", got, tc.want)
			}
		})
	}
	other := errors.New("boom")
	if got := mapDriveError(other); got != other {
		t.Fatalf("unknown errors pass through, got %v", got)
	}
}

func TestMapGCSError(t *testing.T) {
	if got := mapGCSError(&googleapi.Error{Code: http.StatusPreconditionFailed}); !errors.Is(got, ErrConflict) {
		t.Fatalf("412: want ErrConflict, got %v", got)
	}
	if got := mapGCSError(&googleapi.Error{Code: http.StatusNotFound}); !errors.Is(got, ErrNotFound) {
		t.Fatalf("404: want ErrNotFound, got %v", got)
	}
}

func TestGCSKeysStayInUserPrefix(t *testing.T) {
	s := &gcsStore{prefix: "users/u1/"}
	root := s.folderKey("VaultVoice", "")
	if root != "users/u1/VaultVoice/" {
		t.Fatalf("root=%q", root)
	}
	if got := s.fileKey("../../u2/peptide_log.csv", root); got != "users/u1/VaultVoice/.._.._u2_peptide_log.csv" {
		t.Fatalf("fileKey=%q", got)
	}
	if s.owns("users/u2/VaultVoice/") {
		t.Fatalf("foreign prefix must not be owned")
	}
}
