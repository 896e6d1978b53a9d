// Package refdata resolves and loads read-only reference datasets (product
// catalogs, FAQ corpora, case files) from an ordered list of candidate
// locations.
package refdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// SharedDir is the name of the shared dataset directory
const SharedDir = "shared-data"

// Loader finds dataset files under a base directory. The search order for
// dataset "catalog" with base dir D is:
//
//	D/catalog.json
//	D/shared-data/catalog.json
//	D/../shared-data/catalog.json
type Loader struct {
	baseDir string
	logger  *slog.Logger
}

type Option func(*Loader)

// WithLogger sets the logger of the loader
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader rooted at baseDir
func New(baseDir string, opts ...Option) *Loader {
	l := &Loader{
		baseDir: baseDir,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BaseDir returns the session-local directory of the loader
func (l *Loader) BaseDir() string {
	return l.baseDir
}

// Candidates returns the candidate paths of a dataset in priority order
func (l *Loader) Candidates(dataset string) []string {
	file := dataset + ".json"
	return []string{
		filepath.Join(l.baseDir, file),
		filepath.Join(l.baseDir, SharedDir, file),
		filepath.Join(filepath.Dir(filepath.Clean(l.baseDir)), SharedDir, file),
	}
}

// PrimaryPath is the first candidate of a dataset, used as write target
// when nothing was loaded
func (l *Loader) PrimaryPath(dataset string) string {
	return l.Candidates(dataset)[0]
}

// resolve returns the content of the first candidate that exists and is
// accepted by parse. Unreadable or unparsable candidates are logged and
// skipped.
func (l *Loader) resolve(ctx context.Context, dataset string, parse func([]byte) error) (string, error) {
	found := false
	for _, path := range l.Candidates(dataset) {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				found = true
				l.logger.WarnContext(ctx, "failed to read dataset candidate",
					"dataset", dataset, "path", path, "error", err)
			}
			continue
		}
		found = true

		if err := parse(data); err != nil {
			l.logger.WarnContext(ctx, "failed to parse dataset candidate",
				"dataset", dataset, "path", path, "error", err)
			continue
		}

		l.logger.InfoContext(ctx, "loaded dataset", "dataset", dataset, "path", path)
		return path, nil
	}

	if !found {
		return "", goerr.Wrap(model.ErrDatasetUnavailable, "no dataset file found",
			goerr.V("dataset", dataset), goerr.V("dir", l.baseDir))
	}
	return "", goerr.Wrap(model.ErrDatasetUnavailable, "no dataset file could be parsed",
		goerr.V("dataset", dataset), goerr.V("dir", l.baseDir))
}

// LoadRecords loads a dataset stored as a JSON array. Records that cannot
// be decoded into T are skipped with a warning. A document that is not an
// array is treated as an unparsable candidate. When no candidate can be
// loaded an empty slice and an error wrapping model.ErrDatasetUnavailable
// are returned; the error is informational and callers degrade to the
// empty dataset.
func LoadRecords[T any](ctx context.Context, l *Loader, dataset string) ([]T, string, error) {
	var raw []json.RawMessage
	path, err := l.resolve(ctx, dataset, func(data []byte) error {
		raw = nil
		if err := json.Unmarshal(data, &raw); err != nil {
			return goerr.Wrap(err, "dataset is not a JSON array")
		}
		if raw == nil {
			return goerr.New("dataset is null")
		}
		return nil
	})
	if err != nil {
		l.logger.WarnContext(ctx, "dataset unavailable, starting empty", "dataset", dataset)
		return []T{}, "", err
	}

	records := make([]T, 0, len(raw))
	for i, item := range raw {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			l.logger.WarnContext(ctx, "skip malformed record",
				"dataset", dataset, "index", i, "error", goerr.Wrap(model.ErrMalformedRecord, "record is null"))
			continue
		}
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil {
			l.logger.WarnContext(ctx, "skip malformed record",
				"dataset", dataset, "index", i, "error", goerr.Wrap(model.ErrMalformedRecord, err.Error()))
			continue
		}
		records = append(records, rec)
	}

	return records, path, nil
}

// LoadDocument loads a dataset stored as a single JSON object
func LoadDocument[T any](ctx context.Context, l *Loader, dataset string) (*T, string, error) {
	var doc *T
	path, err := l.resolve(ctx, dataset, func(data []byte) error {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return goerr.New("dataset is not a JSON object")
		}
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		doc = &v
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

// Bootstrap writes content to the primary path of a dataset so later saves
// have a deterministic target. An existing file is never overwritten.
func (l *Loader) Bootstrap(ctx context.Context, dataset string, content any) (string, error) {
	path := l.PrimaryPath(dataset)

	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal bootstrap content", goerr.V("dataset", dataset))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create dataset directory", goerr.V("path", path))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create bootstrap file", goerr.V("path", path))
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", goerr.Wrap(err, "failed to write bootstrap file", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close bootstrap file", goerr.V("path", path))
	}

	l.logger.InfoContext(ctx, "created default dataset", "dataset", dataset, "path", path)
	return path, nil
}
