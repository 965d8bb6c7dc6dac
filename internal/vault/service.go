// Package vault is the persistence facade agents talk to. It resolves a
// user's partition folders, routes structured writes to the adapter, and
// assembles best-effort history for prompts.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/vaultvoice-backend/internal/observability"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault/adapter"
	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

var errNoFolders = errors.New("vault: partition folder not provisioned")

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.User, error)
	SaveVaultFolders(ctx context.Context, tx *gorm.DB, userID, rootID string, folders map[types.Partition]string) error
}

type Options struct {
	RecentRows      int
	KeywordRows     int
	PatternSample   int
	MaxContextChars int
	FolderCacheSize int
	FolderCacheTTL  time.Duration
	// WriteTimeout bounds a write after it is detached from the caller.
	WriteTimeout   time.Duration
	ContextTimeout time.Duration
	Relevance      RelevanceEngine
}

type Service struct {
	adapter   *adapter.Adapter
	users     UserRepo
	log       *logger.Logger
	cache     *folderCache
	relevance RelevanceEngine
	tracer    trace.Tracer

	maxChars       int
	writeTimeout   time.Duration
	contextTimeout time.Duration
}

func NewService(a *adapter.Adapter, users UserRepo, log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.Nop()
	}
	rel := opts.Relevance
	if rel == nil {
		rel = KeywordRelevance{RecentRows: opts.RecentRows, KeywordRows: opts.KeywordRows, PatternSample: opts.PatternSample}
	}
	ttl := opts.FolderCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	wt := opts.WriteTimeout
	if wt <= 0 {
		wt = 20 * time.Second
	}
	ct := opts.ContextTimeout
	if ct <= 0 {
		ct = 4 * time.Second
	}
	return &Service{
		adapter:        a,
		users:          users,
		log:            log.With("service", "VaultService"),
		cache:          newFolderCache(opts.FolderCacheSize, ttl),
		relevance:      rel,
		tracer:         otel.Tracer("vaultvoice/vault"),
		maxChars:       orDefault(opts.MaxContextChars, 1800),
		writeTimeout:   wt,
		contextTimeout: ct,
	}
}

// Write persists one payload and reports whether it landed. It never
// returns an error: storage trouble is logged and reads as false.
//
// The write is detached from ctx cancellation and bounded by its own
// timeout, so a turn the caller abandons can still complete its write.
func (s *Service) Write(ctx context.Context, userID string, partition types.Partition, payload Payload) (ok bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	start := time.Now()
	outcome := "failed"
	ctx, span := s.tracer.Start(ctx, "vault.write", trace.WithAttributes(
		attribute.String("vault.partition", string(partition)),
	))
	defer func() {
		if ok {
			outcome = "ok"
		}
		observability.Current().ObserveVaultWrite(string(partition), outcome, time.Since(start))
		span.SetAttributes(attribute.Bool("vault.ok", ok))
		span.End()
	}()

	if payload == nil || !partition.Valid() {
		s.log.Warn("vault write rejected", "partition", partition, "payload_nil", payload == nil)
		return false
	}
	span.SetAttributes(attribute.String("vault.payload", payload.kind()))

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		s.log.Warn("vault write: user lookup failed", "user_id", userID, "error", err)
		return false
	}

	folderID, err := s.folderFor(ctx, user, partition, true)
	if err != nil {
		if adapter.IsNotConnected(err) {
			outcome = "not_connected"
		}
		s.logFailure(span, "resolve_folder", user.ID, partition, err)
		return false
	}

	err = s.writePayload(ctx, user, partition, folderID, payload)
	if isMissingFolder(err) {
		// The folder was deleted or trashed remotely. The stored ids are
		// stale, so provision again and retry once.
		s.cache.Delete(user.ID)
		s.log.Info("vault folder missing; reprovisioning", "user_id", user.ID, "partition", partition)
		span.AddEvent("vault.reprovision")
		var folders *adapter.Folders
		if folders, err = s.provision(ctx, user); err == nil {
			if folderID = folders.Partitions[partition]; folderID == "" {
				err = errNoFolders
			} else {
				err = s.writePayload(ctx, user, partition, folderID, payload)
			}
		}
	}
	if err != nil {
		if adapter.IsNotConnected(err) {
			outcome = "not_connected"
		} else {
			s.cache.Delete(user.ID)
		}
		s.logFailure(span, "write", user.ID, partition, err)
		return false
	}
	return true
}

func (s *Service) writePayload(ctx context.Context, user *types.User, partition types.Partition, folderID string, payload Payload) error {
	t := adapter.Target{Partition: partition, FolderID: folderID}
	switch p := payload.(type) {
	case CSV:
		t.FileName = p.File
		return s.adapter.AppendRow(ctx, user, t, stampRow(p))
	case Markdown:
		t.FileName = p.File
		switch p.Mode {
		case DocAppend:
			return s.adapter.AppendDocument(ctx, user, t, p.Header, p.Content)
		case DocCreate:
			return s.adapter.CreateDocument(ctx, user, t, p.Content)
		default:
			return s.adapter.UpsertDocument(ctx, user, t, p.Content)
		}
	default:
		return fmt.Errorf("unsupported payload %T", payload)
	}
}

func isMissingFolder(err error) bool {
	return err != nil && errors.Is(err, store.ErrNotFound)
}

func (s *Service) logFailure(span trace.Span, stage, userID string, partition types.Partition, err error) {
	if adapter.IsNotConnected(err) {
		s.log.Debug("vault not connected", "stage", stage, "user_id", userID, "partition", partition)
		span.SetAttributes(attribute.String("vault.failure", "not_connected"))
		return
	}
	s.log.Warn("vault write failed", "stage", stage, "user_id", userID, "partition", partition, "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
}

// Provision runs EnsureRoot for a user and stores the folder ids on the user
// record.
func (s *Service) Provision(ctx context.Context, userID string) (*adapter.Folders, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return s.provision(ctx, user)
}

func (s *Service) provision(ctx context.Context, user *types.User) (*adapter.Folders, error) {
	folders, err := s.adapter.EnsureRoot(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SaveVaultFolders(ctx, nil, user.ID, folders.RootID, folders.Partitions); err != nil {
		// The ids are still valid; the next cold start looks them up again.
		s.log.Warn("persist vault folders failed", "user_id", user.ID, "error", err)
	}
	s.cache.Put(user.ID, folders.Partitions)
	return folders, nil
}

func (s *Service) folderFor(ctx context.Context, user *types.User, p types.Partition, provision bool) (string, error) {
	if folders, ok := s.cache.Get(user.ID); ok {
		if id := folders[p]; id != "" {
			return id, nil
		}
	}
	if folders := user.FolderMap(); folders[p] != "" {
		s.cache.Put(user.ID, folders)
		return folders[p], nil
	}
	if !provision {
		return "", errNoFolders
	}
	folders, err := s.provision(ctx, user)
	if err != nil {
		return "", err
	}
	if id := folders.Partitions[p]; id != "" {
		return id, nil
	}
	return "", errNoFolders
}

// BuildContext returns a short prompt-ready summary of the partition's
// history sized to what query asks for, or "" when there is nothing to say.
// It never provisions folders or writes anything.
func (s *Service) BuildContext(ctx context.Context, userID string, partition types.Partition, query string) string {
	files := Catalog[partition]
	if len(files) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		s.log.Debug("vault context: user lookup failed", "user_id", userID, "error", err)
		return ""
	}
	folderID, err := s.folderFor(ctx, user, partition, false)
	if err != nil {
		return ""
	}

	plan := s.relevance.Plan(query)
	tables := make([]namedTable, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			t, err := s.adapter.ReadTable(gctx, user, adapter.Target{Partition: partition, FolderID: folderID, FileName: file})
			switch {
			case err == nil:
				tables[i] = namedTable{file: file, table: t}
			case errors.Is(err, store.ErrNotFound):
			case adapter.IsNotConnected(err):
				return err
			default:
				s.log.Debug("vault context: read failed", "file", file, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ""
	}
	out := renderContext(partition, plan, tables, s.maxChars)
	observability.Current().IncVaultContext(string(partition), out != "")
	return out
}

// UserLocation is the user's configured zone, UTC when unknown.
func (s *Service) UserLocation(ctx context.Context, userID string) *time.Location {
	if strings.TrimSpace(userID) == "" {
		return time.UTC
	}
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return time.UTC
	}
	return user.Location()
}
