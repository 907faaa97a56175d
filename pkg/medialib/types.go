package medialib

import (
	"io"
	"time"
)

// MaxListResults caps every list query issued against a Repository.
const MaxListResults = 1000

// DefaultContentType is served when a filename has no recognized extension.
const DefaultContentType = "application/octet-stream"

// Folder is a named grouping of images. Names are not unique.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Image pairs a generated on-disk filename with its retrieval URL.
//
// FolderID is a soft reference: nothing guarantees the folder exists.
type Image struct {
	ID        string    `json:"id"`
	FolderID  string    `json:"folder_id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageContent is an open image payload ready to be served.
// The caller must close Reader.
type ImageContent struct {
	Filename    string
	ContentType string
	Size        int64
	ModTime     time.Time
	Reader      io.ReadCloser
}

// ObjectMeta describes a payload in a BlobStore.
type ObjectMeta struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}
