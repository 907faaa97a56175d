package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/questgearhub/medialib/pkg/medialib"
)

// folderDocument is the persisted shape of a folder. created_at is written
// as an RFC 3339 string; older documents may hold a native date instead.
type folderDocument struct {
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	CreatedAt any    `bson:"created_at"`
}

type imageDocument struct {
	ID        string `bson:"id"`
	FolderID  string `bson:"folder_id"`
	Filename  string `bson:"filename"`
	URL       string `bson:"url"`
	CreatedAt any    `bson:"created_at"`
}

func newFolderDocument(folder *medialib.Folder) (*folderDocument, error) {
	if folder == nil || folder.ID == "" {
		return nil, fmt.Errorf("%w: folder id is required", medialib.ErrInvalidRecord)
	}
	return &folderDocument{
		ID:        folder.ID,
		Name:      folder.Name,
		CreatedAt: medialib.FormatTimestamp(folder.CreatedAt),
	}, nil
}

func newImageDocument(image *medialib.Image) (*imageDocument, error) {
	if image == nil || image.ID == "" {
		return nil, fmt.Errorf("%w: image id is required", medialib.ErrInvalidRecord)
	}
	if image.Filename == "" {
		return nil, fmt.Errorf("%w: image filename is required", medialib.ErrInvalidRecord)
	}
	return &imageDocument{
		ID:        image.ID,
		FolderID:  image.FolderID,
		Filename:  image.Filename,
		URL:       image.URL,
		CreatedAt: medialib.FormatTimestamp(image.CreatedAt),
	}, nil
}

func (d folderDocument) toFolder() (*medialib.Folder, error) {
	createdAt, err := parseCreatedAt(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("folder %s: %w", d.ID, err)
	}
	return &medialib.Folder{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: createdAt,
	}, nil
}

func (d imageDocument) toImage() (*medialib.Image, error) {
	createdAt, err := parseCreatedAt(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", d.ID, err)
	}
	return &medialib.Image{
		ID:        d.ID,
		FolderID:  d.FolderID,
		Filename:  d.Filename,
		URL:       d.URL,
		CreatedAt: createdAt,
	}, nil
}

func parseCreatedAt(v any) (time.Time, error) {
	if dt, ok := v.(bson.DateTime); ok {
		return dt.Time().UTC(), nil
	}
	return medialib.ParseTimestamp(v)
}
