package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Manager writes session records. Update-in-place datasets are rewritten
// whole with Replace; append-only records get a fresh identifier and key
// through Append.
type Manager struct {
	storage adapter.Storage
	repo    repository.Repository
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Manager)

// WithRepository indexes every appended record as a model.Snapshot
func WithRepository(repo repository.Repository) Option {
	return func(m *Manager) {
		m.repo = repo
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// New creates a Manager writing append-only records to storage
func New(storage adapter.Storage, opts ...Option) *Manager {
	m := &Manager{
		storage: storage,
		logger:  logging.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func failure(err error, msg string, values ...goerr.Option) error {
	return goerr.Wrap(errors.Join(model.ErrPersistenceFailure, err), msg, values...)
}

// Replace serializes v and atomically replaces the file at path with it.
// The directory is created when missing.
func (m *Manager) Replace(ctx context.Context, path string, v any) error {
	if path == "" {
		return failure(goerr.New("no write target"), "cannot replace dataset")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failure(err, "failed to marshal dataset", goerr.V("path", path))
	}

	w, err := adapter.CreateAtomic(path)
	if err != nil {
		return failure(err, "failed to open dataset for writing", goerr.V("path", path))
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return failure(err, "failed to write dataset", goerr.V("path", path))
	}
	if err := w.Close(); err != nil {
		return failure(err, "failed to commit dataset", goerr.V("path", path))
	}

	m.logger.DebugContext(ctx, "dataset replaced", "path", path, "bytes", len(data))
	return nil
}

// Record is the content of an append-only write. Build receives the
// generated identifier and timestamp so they can be embedded in the payload.
type Record struct {
	Kind   model.SnapshotKind
	Status string
	// Key is the lookup key of the index entry, such as the customer name
	Key    string
	Build  func(id model.SnapshotID, now time.Time) any
}

// Key returns the storage key of an appended record
func Key(kind model.SnapshotKind, id model.SnapshotID) string {
	return path.Join(kind.Dir(), string(id)+".json")
}

// Append writes a new record and returns its identifier. A failure to
// index the record is logged but does not fail the save; the stored file
// is the source of truth.
func (m *Manager) Append(ctx context.Context, rec Record) (model.SnapshotID, error) {
	now := m.now().UTC()
	id := model.NewSnapshotID(rec.Kind, now)
	key := Key(rec.Kind, id)

	payload := rec.Build(id, now)
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", failure(err, "failed to marshal record", goerr.V("kind", rec.Kind))
	}

	w, err := m.storage.Put(ctx, key)
	if err != nil {
		return "", failure(err, "failed to open record for writing", goerr.V("key", key))
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", failure(err, "failed to write record", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", failure(err, "failed to commit record", goerr.V("key", key))
	}

	m.logger.InfoContext(ctx, "record saved", "kind", rec.Kind, "id", id, "key", key)

	if m.repo != nil {
		snap := &model.Snapshot{
			ID:        id,
			Kind:      rec.Kind,
			Status:    rec.Status,
			Key:       rec.Key,
			Payload:   payload,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.repo.PutSnapshot(ctx, snap); err != nil {
			m.logger.WarnContext(ctx, "failed to index record", "id", id, "error", err)
		}
	}

	return id, nil
}
