package medialib

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrImageNotFound indicates an image record was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrFileNotFound indicates an image payload is missing from the content store
	ErrFileNotFound = errors.New("file not found")

	// ErrStorageUnavailable indicates the metadata store or content store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidRecord indicates a record is missing a required field
	ErrInvalidRecord = errors.New("invalid record")

	// ErrPayloadRequired indicates an upload was attempted without a payload
	ErrPayloadRequired = errors.New("image payload is required")
)

// FolderError represents an error related to folder operations
type FolderError struct {
	FolderID string
	Op       string
	Err      error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("folder operation %s failed for folder %s: %v", e.Op, e.FolderID, e.Err)
}

func (e *FolderError) Unwrap() error {
	return e.Err
}

// ImageError represents an error related to image operations
type ImageError struct {
	ImageID string
	Op      string
	Err     error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image operation %s failed for image %s: %v", e.Op, e.ImageID, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to content store operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err was caused by bad caller input rather
// than a failing collaborator.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrPayloadRequired) ||
		errors.Is(err, ErrInvalidRecord)
}
