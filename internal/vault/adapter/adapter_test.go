package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestAdapter(t *testing.T) (*Adapter, *store.MemoryConnector, *types.User) {
	t.Helper()
	conn := store.NewMemoryConnector()
	a := New(conn, logger.Nop(), Options{RootFolderName: "VaultVoice", OpTimeout: 2 * time.Second, ConflictRetries: 3})
	return a, conn, &types.User{ID: "user-1", VaultEnabled: true}
}

func peptideTarget(t *testing.T, a *Adapter, user *types.User) Target {
	t.Helper()
	folders, err := a.EnsureRoot(context.Background(), user)
	require.NoError(t, err)
	return Target{Partition: types.PartitionPeptides, FolderID: folders.Partitions[types.PartitionPeptides], FileName: "peptide_log.csv"}
}

func row(kv ...string) types.Row {
	out := types.Row{}
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, types.Field{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestEnsureRootIsIdempotent(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	ctx := context.Background()

	first, err := a.EnsureRoot(ctx, user)
	require.NoError(t, err)
	second, err := a.EnsureRoot(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Partitions, len(types.AllPartitions))
	assert.EqualValues(t, len(types.AllPartitions)+1, conn.For(user.ID).FolderCreates())
}

func TestEnsureRootConcurrentColdUser(t *testing.T) {
	a, conn, user := newTestAdapter(t)

	var wg sync.WaitGroup
	results := make([]*Folders, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := a.EnsureRoot(context.Background(), user)
			if err == nil {
				results[i] = f
			}
		}(i)
	}
	wg.Wait()

	for i, f := range results {
		require.NotNil(t, f, "caller %d failed", i)
		assert.Equal(t, results[0].RootID, f.RootID)
	}
	assert.EqualValues(t, len(types.AllPartitions)+1, conn.For(user.ID).FolderCreates())
}

func TestEnsureRootReusesExistingFolders(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	ctx := context.Background()
	mem := conn.For(user.ID)

	rootID, err := mem.CreateFolder(ctx, "VaultVoice", "")
	require.NoError(t, err)
	sleepID, err := mem.CreateFolder(ctx, "Sleep", rootID)
	require.NoError(t, err)

	f, err := a.EnsureRoot(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, rootID, f.RootID)
	assert.Equal(t, sleepID, f.Partitions[types.PartitionSleep])
	assert.EqualValues(t, 2+len(types.AllPartitions)-1, mem.FolderCreates())
}

func TestAppendRowSequential(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, a.AppendRow(ctx, user, tgt, row("timestamp", fmt.Sprintf("t%d", i), "peptide", "BPC-157", "dosage", "250")))
	}

	body, ok := conn.For(user.ID).Content(tgt.FileName, tgt.FolderID)
	require.True(t, ok)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, n+1)
	assert.Equal(t, "timestamp,peptide,dosage", lines[0])
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("t%d,BPC-157,250", i), lines[i+1])
	}
}

func TestAppendRowConcurrentNoLostUpdate(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- a.AppendRow(context.Background(), user, tgt, row("id", fmt.Sprintf("r%02d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	body, _ := conn.For(user.ID).Content(tgt.FileName, tgt.FolderID)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, n+1)
	assert.Equal(t, "id", lines[0])
	for i := 0; i < n; i++ {
		assert.Contains(t, lines[1:], fmt.Sprintf("r%02d", i))
	}
	assert.Equal(t, 0, a.locks.size())
}

func TestAppendRowRetriesOnVersionConflict(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)
	ctx := context.Background()
	mem := conn.For(user.ID)

	require.NoError(t, a.AppendRow(ctx, user, tgt, row("id", "first")))

	// Another replica sneaks a row in between our read and our write.
	var fired atomic.Bool
	mem.BeforeUpdate = func(fileID string) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		body, _, err := mem.GetContent(ctx, fileID)
		require.NoError(t, err)
		_, err = mem.UpdateContent(ctx, fileID, append(body, []byte("remote\n")...), "")
		require.NoError(t, err)
	}
	require.NoError(t, a.AppendRow(ctx, user, tgt, row("id", "second")))

	body, _ := mem.Content(tgt.FileName, tgt.FolderID)
	assert.Equal(t, "id\nfirst\nremote\nsecond\n", body)
}

func TestAppendRowFollowsExistingHeader(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)
	ctx := context.Background()

	require.NoError(t, a.AppendRow(ctx, user, tgt, row("a", "1", "b", "2", "c", "3")))
	require.NoError(t, a.AppendRow(ctx, user, tgt, row("c", "30", "a", "10", "z", "99")))

	body, _ := conn.For(user.ID).Content(tgt.FileName, tgt.FolderID)
	assert.Equal(t, "a,b,c\n1,2,3\n10,,30\n", body)
}

func TestAppendRowQuotesPerRFC4180(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)

	require.NoError(t, a.AppendRow(context.Background(), user, tgt, row("note", `felt "great", slept well`, "n", "1")))

	body, _ := conn.For(user.ID).Content(tgt.FileName, tgt.FolderID)
	assert.Equal(t, "note,n\n\"felt \"\"great\"\", slept well\",1\n", body)

	table, err := a.ReadTable(context.Background(), user, tgt)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	v, _ := table.Row(0).Get("note")
	assert.Equal(t, `felt "great", slept well`, v)
}

func TestNotConnectedUser(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	ctx := context.Background()
	user := &types.User{ID: "no-creds"}

	_, err := a.EnsureRoot(ctx, user)
	assert.True(t, IsNotConnected(err), "EnsureRoot err=%v", err)

	err = a.AppendRow(ctx, user, Target{Partition: types.PartitionSleep, FolderID: "f", FileName: "sleep_log.csv"}, row("a", "1"))
	assert.True(t, IsNotConnected(err), "AppendRow err=%v", err)
}

type brokenStore struct{ store.Store }

func (brokenStore) FindFile(ctx context.Context, name, parentID string) (*store.File, error) {
	return nil, errors.New("503 backend unavailable")
}

type connectorFunc func(ctx context.Context, user *types.User) (store.Store, error)

func (f connectorFunc) Connect(ctx context.Context, user *types.User) (store.Store, error) {
	return f(ctx, user)
}

func TestStoreFailureIsTransient(t *testing.T) {
	conn := connectorFunc(func(ctx context.Context, user *types.User) (store.Store, error) {
		return brokenStore{Store: store.NewMemory()}, nil
	})
	a := New(conn, logger.Nop(), Options{})
	err := a.AppendRow(context.Background(), &types.User{ID: "u"}, Target{Partition: types.PartitionSleep, FolderID: "f", FileName: "sleep_log.csv"}, row("a", "1"))

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "append_row", te.Op)
	assert.False(t, IsNotConnected(err))
}

func TestDocuments(t *testing.T) {
	a, conn, user := newTestAdapter(t)
	ctx := context.Background()
	folders, err := a.EnsureRoot(ctx, user)
	require.NoError(t, err)
	mem := conn.For(user.ID)

	day := Target{Partition: types.PartitionWorkouts, FolderID: folders.Partitions[types.PartitionWorkouts], FileName: "workout-2026-03-01.md"}
	require.NoError(t, a.AppendDocument(ctx, user, day, "# Workout 2026-03-01", "## 07:00\nran 5k"))
	require.NoError(t, a.AppendDocument(ctx, user, day, "# Workout 2026-03-01", "## 18:00\nyoga"))
	body, _ := mem.Content(day.FileName, day.FolderID)
	assert.Equal(t, "# Workout 2026-03-01\n\n## 07:00\nran 5k\n\n## 18:00\nyoga\n", body)

	note := Target{Partition: types.PartitionWorkouts, FolderID: day.FolderID, FileName: "notes.md"}
	require.NoError(t, a.UpsertDocument(ctx, user, note, "v1"))
	require.NoError(t, a.UpsertDocument(ctx, user, note, "v2"))
	body, _ = mem.Content(note.FileName, note.FolderID)
	assert.Equal(t, "v2", body)

	entry := Target{Partition: types.PartitionJournal, FolderID: folders.Partitions[types.PartitionJournal], FileName: "journal-2026-03-01-abc123.md"}
	require.NoError(t, a.CreateDocument(ctx, user, entry, "dear diary"))
	err = a.CreateDocument(ctx, user, entry, "overwrite attempt")
	var te *TransientError
	require.ErrorAs(t, err, &te)
	body, _ = mem.Content(entry.FileName, entry.FolderID)
	assert.Equal(t, "dear diary", body)
}

func TestReadTableMissingFile(t *testing.T) {
	a, _, user := newTestAdapter(t)
	tgt := peptideTarget(t, a, user)
	_, err := a.ReadTable(context.Background(), user, tgt)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestKeyedMutexHonorsContext(t *testing.T) {
	k := newKeyedMutex()
	unlock, err := k.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, k.size())
}

type countingLocker struct {
	acquired atomic.Int32
	released atomic.Int32
}

func (l *countingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.acquired.Add(1)
	return func() { l.released.Add(1) }, nil
}

func TestSharedLockerWrapsWrites(t *testing.T) {
	conn := store.NewMemoryConnector()
	locker := &countingLocker{}
	a := New(conn, logger.Nop(), Options{Locker: locker})
	user := &types.User{ID: "u", VaultEnabled: true}
	tgt := peptideTarget(t, a, user)

	require.NoError(t, a.AppendRow(context.Background(), user, tgt, row("a", "1")))
	assert.EqualValues(t, 1, locker.acquired.Load())
	assert.EqualValues(t, 1, locker.released.Load())
}
