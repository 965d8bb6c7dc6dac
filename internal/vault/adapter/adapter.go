// Package adapter turns the raw store API into vault operations: folder
// provisioning, CSV row appends and Markdown document writes. Writes to one
// (user, partition, file) are serialized and version-checked so concurrent
// read-modify-write cycles cannot lose updates.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/vaultvoice-backend/internal/platform/httpx"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

type Options struct {
	RootFolderName  string
	OpTimeout       time.Duration
	ConflictRetries int
	// Locker adds a cross-replica lock on top of the in-process one.
	Locker Locker
}

type Folders struct {
	RootID     string
	Partitions map[types.Partition]string
}

// Target names one file inside a user's partition folder.
type Target struct {
	Partition types.Partition
	FolderID  string
	FileName  string
}

func (t Target) lockKey(userID string) string {
	return userID + "|" + string(t.Partition) + "|" + t.FileName
}

type Adapter struct {
	connector store.Connector
	log       *logger.Logger
	root      string
	opTimeout time.Duration
	retries   int
	locks     *keyedMutex
	locker    Locker
	provision singleflight.Group
}

func New(connector store.Connector, log *logger.Logger, opts Options) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	root := strings.TrimSpace(opts.RootFolderName)
	if root == "" {
		root = "VaultVoice"
	}
	timeout := opts.OpTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := opts.ConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &Adapter{
		connector: connector,
		log:       log.With("service", "VaultAdapter"),
		root:      root,
		opTimeout: timeout,
		retries:   retries,
		locks:     newKeyedMutex(),
		locker:    opts.Locker,
	}
}

func (a *Adapter) connect(ctx context.Context, user *types.User) (store.Store, error) {
	if user == nil {
		return nil, ErrNotConnected
	}
	st, err := a.connector.Connect(ctx, user)
	if err != nil {
		return nil, classify("connect", err)
	}
	return st, nil
}

// EnsureRoot looks up or creates the root folder and every partition folder
// under it. Lookup always precedes creation, and concurrent calls for one
// user collapse into a single provisioning pass.
func (a *Adapter) EnsureRoot(ctx context.Context, user *types.User) (*Folders, error) {
	if user == nil {
		return nil, ErrNotConnected
	}
	v, err, _ := a.provision.Do(user.ID, func() (any, error) {
		return a.ensureRoot(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	f := v.(*Folders)
	// Callers may mutate the map; hand each one a copy.
	out := &Folders{RootID: f.RootID, Partitions: make(map[types.Partition]string, len(f.Partitions))}
	for k, id := range f.Partitions {
		out.Partitions[k] = id
	}
	return out, nil
}

func (a *Adapter) ensureRoot(ctx context.Context, user *types.User) (*Folders, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opTimeout*time.Duration(len(types.AllPartitions)+1))
	defer cancel()

	st, err := a.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	rootID, err := lookupOrCreateFolder(ctx, st, a.root, "")
	if err != nil {
		return nil, classify("ensure_root", err)
	}
	out := &Folders{RootID: rootID, Partitions: make(map[types.Partition]string, len(types.AllPartitions))}
	for _, p := range types.AllPartitions {
		id, err := lookupOrCreateFolder(ctx, st, string(p), rootID)
		if err != nil {
			return nil, classify("ensure_root", fmt.Errorf("partition %s: %w", p, err))
		}
		out.Partitions[p] = id
	}
	a.log.Info("vault provisioned", "user_id", user.ID, "partitions", len(out.Partitions))
	return out, nil
}

func lookupOrCreateFolder(ctx context.Context, st store.Store, name, parentID string) (string, error) {
	id, err := st.FindFolder(ctx, name, parentID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	return st.CreateFolder(ctx, name, parentID)
}

// lock takes the per-key in-process mutex and, when configured, the shared
// lock. The returned func releases both.
func (a *Adapter) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := a.locks.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.locker == nil {
		return unlock, nil
	}
	release, err := a.locker.Acquire(ctx, key)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

// withFileLock runs fn under the file's lock and retries it when the store
// reports a version conflict.
func (a *Adapter) withFileLock(ctx context.Context, op string, user *types.User, t Target, fn func(ctx context.Context, st store.Store) error) error {
	if user == nil {
		return ErrNotConnected
	}
	if strings.TrimSpace(t.FolderID) == "" || strings.TrimSpace(t.FileName) == "" {
		return &TransientError{Op: op, Err: errors.New("target folder and file name required")}
	}

	ctx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()

	st, err := a.connect(ctx, user)
	if err != nil {
		return err
	}

	unlock, err := a.lock(ctx, t.lockKey(user.ID))
	if err != nil {
		return classify(op, fmt.Errorf("lock: %w", err))
	}
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			a.log.Debug("vault write conflict, retrying", "op", op, "file", t.FileName, "attempt", attempt)
			if err := httpx.Sleep(ctx, httpx.JitterSleep(time.Duration(attempt)*20*time.Millisecond)); err != nil {
				return classify(op, err)
			}
		}
		lastErr = fn(ctx, st)
		if !errors.Is(lastErr, store.ErrConflict) {
			return classify(op, lastErr)
		}
	}
	return classify(op, fmt.Errorf("gave up after %d attempts: %w", a.retries+1, lastErr))
}

// AppendRow appends one CSV record, creating the file with a header derived
// from the row's keys on first write.
func (a *Adapter) AppendRow(ctx context.Context, user *types.User, t Target, row types.Row) error {
	if len(row) == 0 {
		return &TransientError{Op: "append_row", Err: errors.New("empty row")}
	}
	return a.withFileLock(ctx, "append_row", user, t, func(ctx context.Context, st store.Store) error {
		f, err := st.FindFile(ctx, t.FileName, t.FolderID)
		if errors.Is(err, store.ErrNotFound) {
			body, err := newCSV(row)
			if err != nil {
				return err
			}
			_, err = st.CreateFile(ctx, t.FileName, t.FolderID, body, store.MimeCSV)
			return err
		}
		if err != nil {
			return err
		}

		body, cur, err := st.GetContent(ctx, f.ID)
		if err != nil {
			return err
		}
		next, dropped, err := appendCSV(body, row)
		if err != nil {
			return err
		}
		if len(dropped) > 0 {
			a.log.Warn("csv columns not in existing header were dropped", "file", t.FileName, "columns", dropped)
		}
		_, err = st.UpdateContent(ctx, f.ID, next, cur.Version)
		return err
	})
}

// UpsertDocument creates or fully overwrites a document by name.
func (a *Adapter) UpsertDocument(ctx context.Context, user *types.User, t Target, content string) error {
	return a.withFileLock(ctx, "upsert_document", user, t, func(ctx context.Context, st store.Store) error {
		f, err := st.FindFile(ctx, t.FileName, t.FolderID)
		if errors.Is(err, store.ErrNotFound) {
			_, err = st.CreateFile(ctx, t.FileName, t.FolderID, []byte(content), store.MimeMarkdown)
			return err
		}
		if err != nil {
			return err
		}
		_, err = st.UpdateContent(ctx, f.ID, []byte(content), "")
		return err
	})
}

// AppendDocument adds a section to a document, creating it with header as
// the preamble when absent.
func (a *Adapter) AppendDocument(ctx context.Context, user *types.User, t Target, header, section string) error {
	return a.withFileLock(ctx, "append_document", user, t, func(ctx context.Context, st store.Store) error {
		f, err := st.FindFile(ctx, t.FileName, t.FolderID)
		if errors.Is(err, store.ErrNotFound) {
			_, err = st.CreateFile(ctx, t.FileName, t.FolderID, []byte(joinSections(header, section)), store.MimeMarkdown)
			return err
		}
		if err != nil {
			return err
		}
		body, cur, err := st.GetContent(ctx, f.ID)
		if err != nil {
			return err
		}
		_, err = st.UpdateContent(ctx, f.ID, []byte(joinSections(string(body), section)), cur.Version)
		return err
	})
}

// CreateDocument writes a new immutable document. A name collision is a
// failure, never an overwrite.
func (a *Adapter) CreateDocument(ctx context.Context, user *types.User, t Target, content string) error {
	return a.withFileLock(ctx, "create_document", user, t, func(ctx context.Context, st store.Store) error {
		_, err := st.CreateFile(ctx, t.FileName, t.FolderID, []byte(content), store.MimeMarkdown)
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("document %s already exists", t.FileName)
		}
		return err
	})
}

// ReadTable loads a CSV log. A missing file returns store.ErrNotFound.
func (a *Adapter) ReadTable(ctx context.Context, user *types.User, t Target) (*Table, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()

	st, err := a.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	f, err := st.FindFile(ctx, t.FileName, t.FolderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, classify("read_table", err)
	}
	body, _, err := st.GetContent(ctx, f.ID)
	if err != nil {
		return nil, classify("read_table", err)
	}
	table, err := parseTable(body)
	if err != nil {
		return nil, classify("read_table", err)
	}
	return table, nil
}

func joinSections(existing, section string) string {
	existing = strings.TrimRight(existing, "\n")
	section = strings.TrimSpace(section)
	if existing == "" {
		return section + "\n"
	}
	if section == "" {
		return existing + "\n"
	}
	return existing + "\n\n" + section + "\n"
}
