package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questgearhub/medialib/pkg/medialib"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements medialib.Repository using PostgreSQL.
// created_at is stored as text in the same canonical form the document
// store uses, so records move between backends unchanged.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %s: %v", medialib.ErrStorageUnavailable, operation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %w", operation, err)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", medialib.ErrInvalidRecord, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - run EnsureSchema first")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Folder operations

func (r *Repository) InsertFolder(ctx context.Context, folder *medialib.Folder) error {
	if folder == nil || folder.ID == "" {
		return fmt.Errorf("%w: folder id is required", medialib.ErrInvalidRecord)
	}

	query := `INSERT INTO folders (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, folder.ID, folder.Name, medialib.FormatTimestamp(folder.CreatedAt))
	if err != nil {
		return r.handlePostgresError("insert folder", err)
	}
	return nil
}

func (r *Repository) ListFolders(ctx context.Context) ([]*medialib.Folder, error) {
	query := `SELECT id, name, created_at FROM folders ORDER BY seq LIMIT $1`
	rows, err := r.db.Query(ctx, query, medialib.MaxListResults)
	if err != nil {
		return nil, r.handlePostgresError("list folders", err)
	}
	defer rows.Close()

	folders := make([]*medialib.Folder, 0)
	for rows.Next() {
		var folder medialib.Folder
		var createdAt string
		if err := rows.Scan(&folder.ID, &folder.Name, &createdAt); err != nil {
			return nil, r.handlePostgresError("scan folder", err)
		}
		if folder.CreatedAt, err = medialib.ParseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("folder %s: %w", folder.ID, err)
		}
		folders = append(folders, &folder)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list folders", err)
	}

	return folders, nil
}

func (r *Repository) DeleteFolder(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id); err != nil {
		return r.handlePostgresError("delete folder", err)
	}
	return nil
}

// Image operations

func (r *Repository) InsertImage(ctx context.Context, image *medialib.Image) error {
	if image == nil || image.ID == "" {
		return fmt.Errorf("%w: image id is required", medialib.ErrInvalidRecord)
	}
	if image.Filename == "" {
		return fmt.Errorf("%w: image filename is required", medialib.ErrInvalidRecord)
	}

	query := `
		INSERT INTO images (id, folder_id, filename, url, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query,
		image.ID, image.FolderID, image.Filename, image.URL, medialib.FormatTimestamp(image.CreatedAt))
	if err != nil {
		return r.handlePostgresError("insert image", err)
	}
	return nil
}

func (r *Repository) ListImagesByFolder(ctx context.Context, folderID string) ([]*medialib.Image, error) {
	query := `
		SELECT id, folder_id, filename, url, created_at
		FROM images WHERE folder_id = $1
		ORDER BY seq LIMIT $2`
	rows, err := r.db.Query(ctx, query, folderID, medialib.MaxListResults)
	if err != nil {
		return nil, r.handlePostgresError("list images", err)
	}
	defer rows.Close()

	images := make([]*medialib.Image, 0)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list images", err)
	}

	return images, nil
}

func (r *Repository) FindImageByID(ctx context.Context, imageID string) (*medialib.Image, error) {
	query := `SELECT id, folder_id, filename, url, created_at FROM images WHERE id = $1 LIMIT 1`
	image, err := scanImage(r.db.QueryRow(ctx, query, imageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, medialib.ErrImageNotFound
	}
	if err != nil {
		return nil, r.handlePostgresError("find image", err)
	}
	return image, nil
}

func (r *Repository) DeleteImagesByFolder(ctx context.Context, folderID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM images WHERE folder_id = $1`, folderID); err != nil {
		return r.handlePostgresError("delete images", err)
	}
	return nil
}

func (r *Repository) DeleteImageByID(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id); err != nil {
		return r.handlePostgresError("delete image", err)
	}
	return nil
}

// scanImage reads one image row. pgx.ErrNoRows is returned unwrapped.
func scanImage(row pgx.Row) (*medialib.Image, error) {
	var image medialib.Image
	var createdAt string
	if err := row.Scan(&image.ID, &image.FolderID, &image.Filename, &image.URL, &createdAt); err != nil {
		return nil, err
	}

	ts, err := medialib.ParseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", image.ID, err)
	}
	image.CreatedAt = ts
	return &image, nil
}

var _ medialib.Repository = (*Repository)(nil)
