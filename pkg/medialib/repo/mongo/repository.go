// Package mongo stores folder and image records in a MongoDB database with
// one collection per record kind. Records carry their own string id; the
// server-assigned _id is never read back.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/questgearhub/medialib/pkg/medialib"
)

const (
	FoldersCollection = "folders"
	ImagesCollection  = "images"
)

// Repository implements medialib.Repository on top of a Mongo database
type Repository struct {
	client  *mongo.Client
	folders *mongo.Collection
	images  *mongo.Collection
}

// Open connects to uri, verifies the connection and returns a repository
// bound to dbName. The caller owns the returned repository and must Close it.
func Open(ctx context.Context, uri, dbName string) (*Repository, error) {
	if uri == "" {
		return nil, errors.New("mongo connection string is required")
	}
	if dbName == "" {
		return nil, errors.New("mongo database name is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping failed: %v", medialib.ErrStorageUnavailable, err)
	}

	r := NewWithDatabase(client.Database(dbName))
	r.client = client
	return r, nil
}

// NewWithDatabase creates a repository over an already connected database.
// Close is a no-op for repositories built this way.
func NewWithDatabase(db *mongo.Database) *Repository {
	return &Repository{
		folders: db.Collection(FoldersCollection),
		images:  db.Collection(ImagesCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by the repository queries
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.folders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}},
	}); err != nil {
		return r.handleMongoError("ensure folder indexes", err)
	}

	if _, err := r.images.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}},
		{Keys: bson.D{{Key: "folder_id", Value: 1}}},
	}); err != nil {
		return r.handleMongoError("ensure image indexes", err)
	}
	return nil
}

// Ping verifies the server is reachable
func (r *Repository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return r.handleMongoError("ping", err)
	}
	return nil
}

// Close disconnects the client opened by Open
func (r *Repository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

// Folder operations

func (r *Repository) InsertFolder(ctx context.Context, folder *medialib.Folder) error {
	doc, err := newFolderDocument(folder)
	if err != nil {
		return err
	}

	if _, err := r.folders.InsertOne(ctx, doc); err != nil {
		return r.handleMongoError("insert folder", err)
	}
	return nil
}

func (r *Repository) ListFolders(ctx context.Context) ([]*medialib.Folder, error) {
	cursor, err := r.folders.Find(ctx, bson.D{}, listOptions())
	if err != nil {
		return nil, r.handleMongoError("list folders", err)
	}

	var docs []folderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, r.handleMongoError("list folders", err)
	}

	folders := make([]*medialib.Folder, 0, len(docs))
	for _, doc := range docs {
		folder, err := doc.toFolder()
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

func (r *Repository) DeleteFolder(ctx context.Context, id string) error {
	if _, err := r.folders.DeleteOne(ctx, bson.D{{Key: "id", Value: id}}); err != nil {
		return r.handleMongoError("delete folder", err)
	}
	return nil
}

// Image operations

func (r *Repository) InsertImage(ctx context.Context, image *medialib.Image) error {
	doc, err := newImageDocument(image)
	if err != nil {
		return err
	}

	if _, err := r.images.InsertOne(ctx, doc); err != nil {
		return r.handleMongoError("insert image", err)
	}
	return nil
}

func (r *Repository) ListImagesByFolder(ctx context.Context, folderID string) ([]*medialib.Image, error) {
	cursor, err := r.images.Find(ctx, bson.D{{Key: "folder_id", Value: folderID}}, listOptions())
	if err != nil {
		return nil, r.handleMongoError("list images", err)
	}

	var docs []imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, r.handleMongoError("list images", err)
	}

	images := make([]*medialib.Image, 0, len(docs))
	for _, doc := range docs {
		image, err := doc.toImage()
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

func (r *Repository) FindImageByID(ctx context.Context, imageID string) (*medialib.Image, error) {
	var doc imageDocument
	err := r.images.FindOne(ctx, bson.D{{Key: "id", Value: imageID}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 0}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, medialib.ErrImageNotFound
	}
	if err != nil {
		return nil, r.handleMongoError("find image", err)
	}

	return doc.toImage()
}

func (r *Repository) DeleteImagesByFolder(ctx context.Context, folderID string) error {
	if _, err := r.images.DeleteMany(ctx, bson.D{{Key: "folder_id", Value: folderID}}); err != nil {
		return r.handleMongoError("delete images", err)
	}
	return nil
}

func (r *Repository) DeleteImageByID(ctx context.Context, id string) error {
	if _, err := r.images.DeleteOne(ctx, bson.D{{Key: "id", Value: id}}); err != nil {
		return r.handleMongoError("delete image", err)
	}
	return nil
}

func listOptions() *options.FindOptionsBuilder {
	return options.Find().
		SetLimit(int64(medialib.MaxListResults)).
		SetProjection(bson.D{{Key: "_id", Value: 0}})
}

// handleMongoError marks connectivity failures as ErrStorageUnavailable and
// wraps everything else with the failing operation.
func (r *Repository) handleMongoError(operation string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %s: %v", medialib.ErrStorageUnavailable, operation, err)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

var _ medialib.Repository = (*Repository)(nil)
