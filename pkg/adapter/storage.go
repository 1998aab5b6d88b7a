package adapter

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// Storage is the persistence surface for vector index artifacts. Keys are
// slash-separated paths; an index is written exactly once per run and read
// many times afterwards.
type Storage interface {
	// Put returns a writer for the object at key, creating parents as needed
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens the object at key for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether an object is present at key
	Exists(ctx context.Context, key string) (bool, error)
}

// fileStorage implements Storage on the local filesystem.
type fileStorage struct{}

// NewFileStorage creates a filesystem-backed Storage. Keys are used as file
// paths verbatim, so relative keys resolve against the working directory.
func NewFileStorage() Storage {
	return &fileStorage{}
}

func (s *fileStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create directory", goerr.V("key", key))
	}

	f, err := os.Create(key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create file", goerr.V("key", key))
	}
	return f, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("key", key))
	}
	return f, nil
}

func (s *fileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := os.Stat(key); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to stat file", goerr.V("key", key))
	}
	return true, nil
}
