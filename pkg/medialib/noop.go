package medialib

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) FolderCreated(ctx context.Context, folder *Folder) error {
	return nil
}

func (n *NoopEventSink) FolderDeleted(ctx context.Context, folderID string, imagesRemoved int) error {
	return nil
}

func (n *NoopEventSink) ImageUploaded(ctx context.Context, image *Image) error {
	return nil
}

func (n *NoopEventSink) ImageDeleted(ctx context.Context, imageID string) error {
	return nil
}

// LoggingEventSink writes every lifecycle event to a slog.Logger
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by logger, or slog.Default() when nil
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) FolderCreated(ctx context.Context, folder *Folder) error {
	l.logger.InfoContext(ctx, "Folder created", "folder_id", folder.ID, "name", folder.Name)
	return nil
}

func (l *LoggingEventSink) FolderDeleted(ctx context.Context, folderID string, imagesRemoved int) error {
	l.logger.InfoContext(ctx, "Folder deleted", "folder_id", folderID, "images_removed", imagesRemoved)
	return nil
}

func (l *LoggingEventSink) ImageUploaded(ctx context.Context, image *Image) error {
	l.logger.InfoContext(ctx, "Image uploaded", "image_id", image.ID, "folder_id", image.FolderID, "filename", image.Filename)
	return nil
}

func (l *LoggingEventSink) ImageDeleted(ctx context.Context, imageID string) error {
	l.logger.InfoContext(ctx, "Image deleted", "image_id", imageID)
	return nil
}
