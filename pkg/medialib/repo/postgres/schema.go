package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the tables used by Repository. seq keeps list
// results in insertion order; there is no foreign key from images to
// folders since folder_id is a soft reference.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS images (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		folder_id  TEXT NOT NULL,
		filename   TEXT NOT NULL,
		url        TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_images_folder_id ON images (folder_id)`,
}

// EnsureSchema creates the folders and images tables in the current
// search_path if they do not exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
