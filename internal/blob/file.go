package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
	fileExt   = ".json"
)

// File stores each key as <dir>/<key>.json. Writes go through a temp file and
// rename, so readers never see a torn blob. Concurrent writers in other
// processes are serialized by a lock file under <dir>/.locks.
type File struct {
	dir string
}

// OpenFile returns a File store rooted at dir, creating dir if needed.
func OpenFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: file: directory is empty", ErrUnavailable)
	}

	err := os.MkdirAll(dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("%w: file: create %s: %w", ErrUnavailable, dir, err)
	}

	return &File{dir: filepath.Clean(dir)}, nil
}

// Path returns the file that holds key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

// Load implements Store.
func (f *File) Load(_ context.Context, key string) ([]byte, bool, error) {
	err := validateKey(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}

	return data, true, nil
}

// Save implements Store.
func (f *File) Save(_ context.Context, key string, data []byte) error {
	err := validateKey(key)
	if err != nil {
		return err
	}

	path := f.Path(key)

	return withLock(path, func() error {
		writeErr := atomic.WriteFile(path, bytes.NewReader(data))
		if writeErr != nil {
			return fmt.Errorf("write %s: %w", key, writeErr)
		}

		// atomic.WriteFile doesn't set permissions for new files
		chmodErr := os.Chmod(path, filePerms)
		if chmodErr != nil {
			return fmt.Errorf("chmod %s: %w", key, chmodErr)
		}

		return nil
	})
}

// Close implements Store. File holds no resources between calls.
func (f *File) Close() error {
	return nil
}
