package medialib

import (
	"context"
	"io"
)

// Repository persists folder and image records. It offers no transactions:
// cross-record consistency is the caller's job.
type Repository interface {
	// InsertFolder persists a fully populated folder
	InsertFolder(ctx context.Context, folder *Folder) error

	// InsertImage persists a fully populated image
	InsertImage(ctx context.Context, image *Image) error

	// ListFolders returns up to MaxListResults folders
	ListFolders(ctx context.Context) ([]*Folder, error)

	// ListImagesByFolder returns up to MaxListResults images whose FolderID matches
	ListImagesByFolder(ctx context.Context, folderID string) ([]*Image, error)

	// FindImageByID returns ErrImageNotFound when no record matches
	FindImageByID(ctx context.Context, imageID string) (*Image, error)

	// Delete operations succeed when nothing matches
	DeleteFolder(ctx context.Context, id string) error
	DeleteImagesByFolder(ctx context.Context, folderID string) error
	DeleteImageByID(ctx context.Context, id string) error
}

// BlobStore is the content store holding image payloads by generated filename.
type BlobStore interface {
	// Upload writes the payload under key
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens the payload; ErrFileNotFound when absent
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a payload is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the payload; ErrFileNotFound when absent
	Delete(ctx context.Context, key string) error

	// GetObjectMeta returns size and modification time; ErrFileNotFound when absent
	GetObjectMeta(ctx context.Context, key string) (*ObjectMeta, error)
}

// EventSink receives lifecycle notifications. Failures are logged, never
// propagated to the caller.
type EventSink interface {
	FolderCreated(ctx context.Context, folder *Folder) error
	FolderDeleted(ctx context.Context, folderID string, imagesRemoved int) error
	ImageUploaded(ctx context.Context, image *Image) error
	ImageDeleted(ctx context.Context, imageID string) error
}
