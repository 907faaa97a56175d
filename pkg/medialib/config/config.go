package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/questgearhub/medialib/pkg/medialib"
	"github.com/questgearhub/medialib/pkg/medialib/objectkey"
	"github.com/questgearhub/medialib/pkg/medialib/repo/memory"
	repomongo "github.com/questgearhub/medialib/pkg/medialib/repo/mongo"
	repopg "github.com/questgearhub/medialib/pkg/medialib/repo/postgres"
	fsstorage "github.com/questgearhub/medialib/pkg/medialib/storage/fs"
	s3storage "github.com/questgearhub/medialib/pkg/medialib/storage/s3"
	"github.com/questgearhub/medialib/pkg/medialib/urlstrategy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// CloseFunc releases the connections opened by BuildService.
type CloseFunc func(ctx context.Context) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseName:       "medialib",
		StorageBackend:     "fs",
		UploadsDir:         "uploads",
		URLStrategy:        string(urlstrategy.StrategyTypeContentBased),
		URLPrefix:          urlstrategy.DefaultPathPrefix,
		S3:                 S3Config{Region: "us-east-1"},
		CORSOrigins:        []string{"*"},
		EnableEventLogging: true,
		RequestTimeout:     60 * time.Second,
	}
}

// ServerConfig represents server configuration for the media library service.
// The env tags are read by WithEnv; unset variables keep the current value.
type ServerConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"` // development, production, testing

	// Metadata store configuration
	DatabaseType string `env:"DATABASE_TYPE"` // "memory", "mongo", "postgres"; empty selects mongo when MongoURL is set
	MongoURL     string `env:"MONGO_URL"`
	DatabaseName string `env:"DB_NAME"`           // Mongo database name
	DatabaseURL  string `env:"DATABASE_URL"`      // Postgres connection string
	DBSchema     string `env:"CONTENT_DB_SCHEMA"` // Postgres schema to use (optional)

	// Content store configuration
	StorageBackend string `env:"STORAGE_BACKEND"` // "fs", "memory", "s3"
	UploadsDir     string `env:"UPLOADS_DIR"`
	S3             S3Config

	// Stored filename and URL generation
	FilenamePrefix string `env:"FILENAME_PREFIX"`
	URLStrategy    string `env:"URL_STRATEGY"` // "content-based", "cdn"
	URLPrefix      string `env:"UPLOADS_URL_PREFIX"`
	CDNBaseURL     string `env:"CDN_BASE_URL"`

	// Server options
	CORSOrigins        []string      `env:"CORS_ORIGINS" env-separator:","`
	EnableEventLogging bool          `env:"ENABLE_EVENT_LOGGING"`
	CompensateOrphans  bool          `env:"COMPENSATE_ORPHANS"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
}

// S3Config mirrors the S3 backend options exposed through the environment
type S3Config struct {
	Region          string `env:"S3_REGION"`
	Bucket          string `env:"S3_BUCKET"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"S3_ENDPOINT"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE"`
	KeyPrefix       string `env:"S3_KEY_PREFIX"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET"`
}

// normalize lower-cases the selector fields and resolves an empty database type
func (c *ServerConfig) normalize() {
	c.DatabaseType = strings.ToLower(c.DatabaseType)
	c.StorageBackend = strings.ToLower(c.StorageBackend)
	c.URLStrategy = strings.ToLower(c.URLStrategy)

	if c.DatabaseType == "" {
		c.DatabaseType = "memory"
		if c.MongoURL != "" {
			c.DatabaseType = "mongo"
		}
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "mongo":
		if c.MongoURL == "" {
			return errors.New("mongo_url is required when using mongo")
		}
		if c.DatabaseName == "" {
			return errors.New("db_name is required when using mongo")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return errors.New("database_type must be 'memory', 'mongo' or 'postgres'")
	}

	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.UploadsDir == "" {
			return errors.New("uploads_dir is required when using fs storage")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return errors.New("storage_backend must be 'fs', 'memory' or 's3'")
	}

	switch urlstrategy.URLStrategyType(c.URLStrategy) {
	case urlstrategy.StrategyTypeContentBased, "":
	case urlstrategy.StrategyTypeCDN:
		if c.CDNBaseURL == "" {
			return errors.New("cdn_base_url is required for the cdn url strategy")
		}
	default:
		return fmt.Errorf("unknown url strategy: %s", c.URLStrategy)
	}

	return nil
}

// BuildService opens the configured stores and creates a Service. The
// returned CloseFunc must be called at shutdown, after in-flight requests
// have drained.
func (c *ServerConfig) BuildService(ctx context.Context) (medialib.Service, CloseFunc, error) {
	var options []medialib.Option

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, medialib.WithRepository(repo))

	store, err := c.buildStorageBackend()
	if err != nil {
		_ = closeRepo(ctx)
		return nil, nil, fmt.Errorf("failed to build storage backend %s: %w", c.StorageBackend, err)
	}
	options = append(options, medialib.WithBlobStore(c.StorageBackend, store))

	strategy, err := urlstrategy.NewURLStrategy(urlstrategy.Config{
		Type:       urlstrategy.URLStrategyType(c.URLStrategy),
		CDNBaseURL: c.CDNBaseURL,
		PathPrefix: c.URLPrefix,
	})
	if err != nil {
		_ = closeRepo(ctx)
		return nil, nil, err
	}
	options = append(options, medialib.WithURLStrategy(strategy))

	if c.FilenamePrefix != "" {
		options = append(options, medialib.WithKeyGenerator(objectkey.NewPrefixedGenerator(c.FilenamePrefix)))
	}

	if c.EnableEventLogging {
		options = append(options, medialib.WithEventSink(medialib.NewLoggingEventSink(slog.Default())))
	}

	options = append(options, medialib.WithOrphanCompensation(c.CompensateOrphans))

	svc, err := medialib.New(options...)
	if err != nil {
		_ = closeRepo(ctx)
		return nil, nil, err
	}
	return svc, closeRepo, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (medialib.Repository, CloseFunc, error) {
	noopClose := func(context.Context) error { return nil }

	switch c.DatabaseType {
	case "memory":
		return memory.New(), noopClose, nil
	case "mongo":
		repo, err := repomongo.Open(ctx, c.MongoURL, c.DatabaseName)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "postgres":
		pool, err := c.newPostgresPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := repopg.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		closePool := func(context.Context) error {
			pool.Close()
			return nil
		}
		return repopg.NewWithPool(pool), closePool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) newPostgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}

	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: postgres ping failed: %v", medialib.ErrStorageUnavailable, err)
	}
	return pool, nil
}

// buildStorageBackend creates the content store based on the configuration
func (c *ServerConfig) buildStorageBackend() (medialib.BlobStore, error) {
	switch c.StorageBackend {
	case "memory":
		return fsstorage.NewMemory(), nil
	case "fs":
		backend, err := fsstorage.New(fsstorage.Config{BaseDir: c.UploadsDir})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "s3":
		backend, err := s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			KeyPrefix:              c.S3.KeyPrefix,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.StorageBackend)
	}
}
