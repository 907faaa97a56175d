package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides through the env tags on
// ServerConfig. Variables that are not set leave the current value alone.
//
// Metadata store:
//
//	DATABASE_TYPE - memory, mongo or postgres. When empty and MONGO_URL is
//	                set, mongo is selected.
//	MONGO_URL, DB_NAME - Mongo connection string and database name
//	DATABASE_URL, CONTENT_DB_SCHEMA - Postgres connection string and schema
//
// Content store:
//
//	STORAGE_BACKEND - fs (default), memory or s3
//	UPLOADS_DIR - directory for the fs backend (default: uploads)
//	S3_* - bucket, region, credentials and endpoint for the s3 backend
//
// URLs and filenames:
//
//	UPLOADS_URL_PREFIX - path prefix of image URLs (default: /api/uploads)
//	URL_STRATEGY, CDN_BASE_URL - serve image URLs from a CDN instead
//	FILENAME_PREFIX - prefix for generated filenames
//
// Server:
//
//	PORT, ENVIRONMENT, CORS_ORIGINS (comma separated), REQUEST_TIMEOUT,
//	ENABLE_EVENT_LOGGING, COMPENSATE_ORPHANS
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}
