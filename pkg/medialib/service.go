package medialib

import "context"

// Service defines the media library operations exposed to the HTTP layer
type Service interface {
	// Folder operations
	CreateFolder(ctx context.Context, req CreateFolderRequest) (*Folder, error)
	ListFolders(ctx context.Context) ([]*Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error

	// Image operations
	UploadImage(ctx context.Context, req UploadImageRequest) (*Image, error)
	ListImages(ctx context.Context, folderID string) ([]*Image, error)
	DeleteImage(ctx context.Context, imageID string) error

	// FetchImage opens a stored payload by its generated filename
	FetchImage(ctx context.Context, filename string) (*ImageContent, error)
}
