package medialib

import "io"

// CreateFolderRequest contains parameters for creating a folder
type CreateFolderRequest struct {
	Name string
}

// UploadImageRequest contains parameters for uploading an image.
//
// OriginalFilename only contributes its extension to the stored name.
type UploadImageRequest struct {
	FolderID         string
	OriginalFilename string
	Reader           io.Reader
}
