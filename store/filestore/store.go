package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	fragmentcache "github.com/fragcache/fragment-cache"
	"github.com/fragcache/fragment-cache/internal/ctxsync"
	"github.com/fragcache/fragment-cache/store"
)

// Store is a file-backed fragment store. One file per key, atomic writes.
type Store struct {
	dir     string
	fsync   bool
	writeMu ctxsync.CtxLocker
}

var _ fragmentcache.FragmentStore = (*Store)(nil)

// New creates a file store rooted at cfg.Dir, creating the directory if needed.
// A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fragment directory: %w", err)
	}
	return &Store{
		dir:     cfg.Dir,
		fsync:   cfg.FsyncOnWrite,
		writeMu: ctxsync.CtxLocker{Locker: &sync.Mutex{}},
	}, nil
}

// path maps a fragment key to its file path.
// Keys are hashed so arbitrary key strings never reach the filesystem.
func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".frag")
}

// Read retrieves the fragment stored under the given key.
// A missing file reads as a cache miss, not an error.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", store.ErrRead, err)
	}
	return data, nil
}

// Write stores a fragment under the given key.
// The bytes land in a temporary file first and are renamed into place, so a
// concurrent Read never observes a partially written fragment.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if err := s.writeMu.LockCtx(ctx); err != nil {
		return err
	}
	defer s.writeMu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", store.ErrWrite, err)
	}
	if s.fsync {
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: %w", store.ErrWrite, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrWrite, err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("%w: %w", store.ErrWrite, err)
	}
	return nil
}

// Delete removes the fragment stored under the given key.
// Deleting a key that does not exist is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.writeMu.LockCtx(ctx); err != nil {
		return err
	}
	defer s.writeMu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", store.ErrDelete, err)
	}
	return nil
}
