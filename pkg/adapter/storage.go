package adapter

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage is the interface for append-only record storage. Keys are slash
// separated paths such as "orders/ORD20251126093015-1f3a9c2e.json".
type Storage interface {
	// Put returns a writer to save a record. The record becomes visible
	// only when Close returns nil.
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get loads a record from storage
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client. prefix is prepended to
// every key and may be empty.
func NewStorage(ctx context.Context, bucketName, prefix string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		client:     client,
	}, nil
}

func (s *storageClient) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(path.Join(s.prefix, key))
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	return writer, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.Value("key", key))
	}

	return reader, nil
}

// fileStorage implements Storage on the local filesystem
type fileStorage struct {
	root string
}

// NewFileStorage creates a Storage rooted at dir. Directories under dir are
// created on first write.
func NewFileStorage(dir string) Storage {
	return &fileStorage{root: dir}
}

func (s *fileStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", goerr.New("empty storage key")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func (s *fileStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return CreateAtomic(p)
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open stored file", goerr.Value("key", key))
	}
	return f, nil
}

// atomicFile writes to a temporary file next to the target and renames it
// over the target on Close, so readers never observe a partial file
type atomicFile struct {
	*os.File
	target string
	err    error
	closed bool
}

// CreateAtomic opens a writer for path, creating its directory. The content
// replaces path only when Close succeeds; a failed write leaves any previous
// file untouched.
func CreateAtomic(target string) (io.WriteCloser, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create directory", goerr.Value("dir", dir))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temp file", goerr.Value("dir", dir))
	}
	return &atomicFile{File: tmp, target: target}, nil
}

func (f *atomicFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	if err != nil && f.err == nil {
		f.err = err
	}
	return n, err
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	tmpName := f.File.Name()
	syncErr := f.File.Sync()
	closeErr := f.File.Close()

	if err := errors.Join(f.err, syncErr, closeErr); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to write temp file", goerr.Value("path", f.target))
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to set file mode", goerr.Value("path", f.target))
	}

	if err := os.Rename(tmpName, f.target); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to rename temp file", goerr.Value("path", f.target))
	}
	return nil
}
