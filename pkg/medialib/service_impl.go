package medialib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/questgearhub/medialib/pkg/medialib/objectkey"
	"github.com/questgearhub/medialib/pkg/medialib/urlstrategy"
)

// service implements the Service interface
type service struct {
	repository        Repository
	blobStore         BlobStore
	backendName       string
	eventSink         EventSink
	logger            *slog.Logger
	keyGenerator      objectkey.Generator
	urlStrategy       urlstrategy.URLStrategy
	compensateOrphans bool
	now               func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the content store holding image payloads. The name is
// only used to label storage errors.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backendName = name
		s.blobStore = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for tolerated failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithKeyGenerator overrides how stored filenames are generated
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = gen
	}
}

// WithURLStrategy overrides how image URLs are derived from filenames
func WithURLStrategy(strategy urlstrategy.URLStrategy) Option {
	return func(s *service) {
		s.urlStrategy = strategy
	}
}

// WithOrphanCompensation makes UploadImage remove the freshly written file
// when the metadata insert fails. Disabled by default.
func WithOrphanCompensation(enabled bool) Option {
	return func(s *service) {
		s.compensateOrphans = enabled
	}
}

// WithClock sets the time source used for created_at
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		backendName:  "default",
		eventSink:    NewNoopEventSink(),
		keyGenerator: objectkey.NewFlatGenerator(),
		urlStrategy:  urlstrategy.NewDefaultStrategy(""),
		now:          time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Folder operations

func (s *service) CreateFolder(ctx context.Context, req CreateFolderRequest) (*Folder, error) {
	folder := &Folder{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repository.InsertFolder(ctx, folder); err != nil {
		return nil, &FolderError{
			FolderID: folder.ID,
			Op:       "create",
			Err:      err,
		}
	}

	if err := s.eventSink.FolderCreated(ctx, folder); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "folder_created", "error", err)
	}

	return folder, nil
}

func (s *service) ListFolders(ctx context.Context) ([]*Folder, error) {
	folders, err := s.repository.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	result := make([]*Folder, 0, len(folders))
	for _, f := range folders {
		f.CreatedAt = f.CreatedAt.UTC()
		result = append(result, f)
	}
	return result, nil
}

// DeleteFolder removes the folder together with every image it owns.
// Deleting an unknown folder succeeds.
func (s *service) DeleteFolder(ctx context.Context, folderID string) error {
	removed, err := s.cascadeDeleteFolder(ctx, folderID)
	if err != nil {
		return err
	}

	if err := s.eventSink.FolderDeleted(ctx, folderID, removed); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "folder_deleted", "error", err)
	}
	return nil
}

// cascadeDeleteFolder runs the non-transactional cascade: image files, then
// image records in one call, then the folder record. The order is part of the
// observable contract. File failures are skipped; repository failures stop
// the cascade and leave whatever was already removed removed.
func (s *service) cascadeDeleteFolder(ctx context.Context, folderID string) (int, error) {
	images, err := s.repository.ListImagesByFolder(ctx, folderID)
	if err != nil {
		return 0, &FolderError{FolderID: folderID, Op: "list_images", Err: err}
	}

	for _, img := range images {
		if err := s.removeFile(ctx, img.Filename); err != nil {
			s.logger.WarnContext(ctx, "Skipping image file during folder cascade",
				"folder_id", folderID, "image_id", img.ID, "filename", img.Filename, "error", err)
		}
	}

	if err := s.repository.DeleteImagesByFolder(ctx, folderID); err != nil {
		return 0, &FolderError{FolderID: folderID, Op: "delete_images", Err: err}
	}

	if err := s.repository.DeleteFolder(ctx, folderID); err != nil {
		return 0, &FolderError{FolderID: folderID, Op: "delete", Err: err}
	}

	return len(images), nil
}

// Image operations

func (s *service) UploadImage(ctx context.Context, req UploadImageRequest) (*Image, error) {
	imageID := uuid.NewString()
	if req.Reader == nil {
		return nil, &ImageError{ImageID: imageID, Op: "upload", Err: ErrPayloadRequired}
	}

	filename := s.keyGenerator.GenerateKey(uuid.New(), req.OriginalFilename)
	if err := objectkey.ValidateKey(filename); err != nil {
		return nil, &ImageError{ImageID: imageID, Op: "generate_key", Err: err}
	}

	url, err := s.urlStrategy.ImageURL(filename)
	if err != nil {
		return nil, &ImageError{ImageID: imageID, Op: "generate_url", Err: err}
	}

	// The payload is written before the record exists.
	if err := s.blobStore.Upload(ctx, filename, req.Reader); err != nil {
		return nil, &StorageError{
			Backend: s.backendName,
			Key:     filename,
			Op:      "upload",
			Err:     err,
		}
	}

	image := &Image{
		ID:        imageID,
		FolderID:  req.FolderID,
		Filename:  filename,
		URL:       url,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repository.InsertImage(ctx, image); err != nil {
		s.handleOrphanedFile(ctx, image, err)
		return nil, &ImageError{ImageID: imageID, Op: "create", Err: err}
	}

	if err := s.eventSink.ImageUploaded(ctx, image); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "image_uploaded", "error", err)
	}

	return image, nil
}

func (s *service) ListImages(ctx context.Context, folderID string) ([]*Image, error) {
	images, err := s.repository.ListImagesByFolder(ctx, folderID)
	if err != nil {
		return nil, &FolderError{FolderID: folderID, Op: "list_images", Err: err}
	}

	result := make([]*Image, 0, len(images))
	for _, img := range images {
		img.CreatedAt = img.CreatedAt.UTC()
		result = append(result, img)
	}
	return result, nil
}

// DeleteImage removes the image file and then its record. An unknown image
// id is treated as already deleted.
func (s *service) DeleteImage(ctx context.Context, imageID string) error {
	image, err := s.repository.FindImageByID(ctx, imageID)
	if errors.Is(err, ErrImageNotFound) {
		return nil
	}
	if err != nil {
		return &ImageError{ImageID: imageID, Op: "find", Err: err}
	}

	if err := s.removeFile(ctx, image.Filename); err != nil {
		return &StorageError{
			Backend: s.backendName,
			Key:     image.Filename,
			Op:      "delete",
			Err:     err,
		}
	}

	if err := s.repository.DeleteImageByID(ctx, imageID); err != nil {
		return &ImageError{ImageID: imageID, Op: "delete", Err: err}
	}

	if err := s.eventSink.ImageDeleted(ctx, imageID); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "image_deleted", "error", err)
	}
	return nil
}

func (s *service) FetchImage(ctx context.Context, filename string) (*ImageContent, error) {
	if err := objectkey.ValidateKey(filename); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileNotFound, err)
	}

	meta, err := s.blobStore.GetObjectMeta(ctx, filename)
	if err != nil {
		return nil, &StorageError{Backend: s.backendName, Key: filename, Op: "stat", Err: err}
	}

	reader, err := s.blobStore.Download(ctx, filename)
	if err != nil {
		return nil, &StorageError{Backend: s.backendName, Key: filename, Op: "download", Err: err}
	}

	return &ImageContent{
		Filename:    filename,
		ContentType: ResolveContentType(filename),
		Size:        meta.Size,
		ModTime:     meta.UpdatedAt,
		Reader:      reader,
	}, nil
}

// Helper methods

// removeFile deletes a payload if it is present. A missing payload, or a
// stored name that could never have been written, is not an error.
func (s *service) removeFile(ctx context.Context, filename string) error {
	if err := objectkey.ValidateKey(filename); err != nil {
		s.logger.WarnContext(ctx, "Ignoring invalid stored filename", "filename", filename, "error", err)
		return nil
	}

	exists, err := s.blobStore.Exists(ctx, filename)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := s.blobStore.Delete(ctx, filename); err != nil && !errors.Is(err, ErrFileNotFound) {
		return err
	}
	return nil
}

func (s *service) handleOrphanedFile(ctx context.Context, image *Image, cause error) {
	if !s.compensateOrphans {
		s.logger.ErrorContext(ctx, "Image file written without metadata record",
			"image_id", image.ID, "folder_id", image.FolderID, "filename", image.Filename, "error", cause)
		return
	}

	if err := s.blobStore.Delete(ctx, image.Filename); err != nil && !errors.Is(err, ErrFileNotFound) {
		s.logger.ErrorContext(ctx, "Failed to remove image file after metadata write failure",
			"image_id", image.ID, "filename", image.Filename, "error", err, "cause", cause)
	}
}
