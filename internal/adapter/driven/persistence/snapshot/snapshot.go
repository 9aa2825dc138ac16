// Package snapshot persists the record store to a single msgpack file.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/vmihailenco/msgpack/v5"
)

const version = 1

type file struct {
	Version int             `msgpack:"version"`
	Data    memory.Snapshot `msgpack:"data"`
}

// Save writes the store to path. The file is replaced atomically.
func Save(ctx context.Context, path string, store *memory.Store) error {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}
	data, err := msgpack.Marshal(file{Version: version, Data: snap})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load restores the store from path. A missing file is not an error and
// leaves the store untouched.
func Load(ctx context.Context, path string, store *memory.Store) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var f file
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if f.Version != version {
		return fmt.Errorf("snapshot %s: unsupported version %d", path, f.Version)
	}
	return store.Restore(ctx, f.Data)
}
