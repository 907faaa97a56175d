package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/questgearhub/medialib/pkg/medialib"
)

// Backend is a filesystem implementation of the medialib.BlobStore interface.
// Payloads live as flat files directly under the root of fs.
type Backend struct {
	mu sync.RWMutex
	fs afero.Fs
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Directory holding uploaded files, created if missing
}

// New creates a filesystem backend rooted at config.BaseDir
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return NewWithFs(afero.NewBasePathFs(osFs, config.BaseDir)), nil
}

// NewWithFs creates a backend over an existing afero filesystem
func NewWithFs(fs afero.Fs) *Backend {
	return &Backend{fs: fs}
}

// NewMemory creates a backend over an in-memory filesystem
func NewMemory() *Backend {
	return NewWithFs(afero.NewMemMapFs())
}

// Upload writes the payload, replacing any existing file with the same name
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := b.fs.Create(objectKey)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = b.fs.Remove(objectKey)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = b.fs.Remove(objectKey)
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// Download opens the stored file for reading
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	file, err := b.fs.Open(objectKey)
	if errors.Is(err, os.ErrNotExist) {
		return nil, medialib.ErrFileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists reports whether a regular file is stored under objectKey
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	info, err := b.fs.Stat(objectKey)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return !info.IsDir(), nil
}

// Delete removes the stored file
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.fs.Remove(objectKey); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return medialib.ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// GetObjectMeta returns size and modification time of the stored file
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*medialib.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	info, err := b.fs.Stat(objectKey)
	if errors.Is(err, os.ErrNotExist) {
		return nil, medialib.ErrFileNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.IsDir() {
		return nil, medialib.ErrFileNotFound
	}

	return &medialib.ObjectMeta{
		Key:       objectKey,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

var _ medialib.BlobStore = (*Backend)(nil)
