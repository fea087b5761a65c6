// Package config loads the publishing pipeline's settings from the
// environment and builds the stores and providers they describe.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tendant/simple-publish/pkg/publish"
	"github.com/tendant/simple-publish/pkg/publish/repo/memory"
	repopg "github.com/tendant/simple-publish/pkg/publish/repo/postgres"
	reposqlite "github.com/tendant/simple-publish/pkg/publish/repo/sqlite"
	fsstorage "github.com/tendant/simple-publish/pkg/publish/storage/fs"
	gcsstorage "github.com/tendant/simple-publish/pkg/publish/storage/gcs"
	memorystorage "github.com/tendant/simple-publish/pkg/publish/storage/memory"
	s3storage "github.com/tendant/simple-publish/pkg/publish/storage/s3"
	"github.com/tendant/simple-publish/pkg/publish/tts/elevenlabs"
)

// Config is loaded once per run and passed to the components it configures.
type Config struct {
	Storage   StorageConfig
	Database  DatabaseConfig
	Synthesis SynthesisConfig
	Publish   PublishConfig
	Log       LogConfig
}

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"s3" env-description:"s3, gcs, fs or memory"`

	Bucket          string `env:"S3_BUCKET_NAME"`
	Region          string `env:"AWS_REGION" env-default:"us-east-2"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"AWS_S3_ENDPOINT"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	EnableSSE       bool   `env:"AWS_S3_ENABLE_SSE" env-default:"false"`
	SSEAlgorithm    string `env:"AWS_S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID     string `env:"AWS_S3_SSE_KMS_KEY_ID"`

	GCSBucket          string `env:"GCS_BUCKET_NAME"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
	GCSEndpoint        string `env:"GCS_ENDPOINT"`

	BaseDir string `env:"STORAGE_BASE_DIR" env-default:"./data/storage"`
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"postgres" env-description:"postgres, sqlite or memory"`

	// URL takes precedence over the individual connection fields
	URL      string `env:"DATABASE_URL"`
	User     string `env:"SUPABASE_DB_USER"`
	Password string `env:"SUPABASE_DB_PASSWORD"`
	Host     string `env:"SUPABASE_DB_HOST"`
	Port     uint16 `env:"SUPABASE_DB_PORT" env-default:"5432"`
	Name     string `env:"SUPABASE_DB_NAME" env-default:"postgres"`
	SSLMode  string `env:"SUPABASE_DB_SSLMODE" env-default:"require"`
	Schema   string `env:"DB_SCHEMA" env-default:"public"`

	SQLitePath string `env:"SQLITE_PATH" env-default:"./data/publish.db"`
}

type SynthesisConfig struct {
	APIKey       string        `env:"ELEVENLABS_API_KEY"`
	BaseURL      string        `env:"ELEVENLABS_BASE_URL" env-default:"https://api.elevenlabs.io"`
	Model        string        `env:"ELEVENLABS_MODEL" env-default:"eleven_flash_v2_5"`
	Timeout      time.Duration `env:"ELEVENLABS_TIMEOUT" env-default:"2m"`
	FrenchVoice  string        `env:"ELEVENLABS_VOICE_FRENCH"`
	SpanishVoice string        `env:"ELEVENLABS_VOICE_SPANISH"`
	DefaultVoice string        `env:"ELEVENLABS_VOICE_DEFAULT"`
	Concurrency  int           `env:"SYNTHESIS_CONCURRENCY" env-default:"1"`
}

type PublishConfig struct {
	UploadConcurrency int    `env:"UPLOAD_CONCURRENCY" env-default:"4"`
	BatchConcurrency  int    `env:"BATCH_CONCURRENCY" env-default:"2"`
	AdminUserID       string `env:"ADMIN_USER_ID"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	Mode  string `env:"LOG_MODE" env-default:"dev" env-description:"dev (console) or prod (json)"`
}

// Load reads the given dotenv files (missing files are skipped) and then the
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}

// Section names a group of settings a command depends on
type Section int

const (
	SectionStorage Section = iota
	SectionDatabase
	SectionSynthesis
	SectionDeckOwner
)

// Require checks that every value needed by sections is present, so a
// command fails before it touches any folder or remote store.
func (c *Config) Require(sections ...Section) error {
	var missing []string
	for _, s := range sections {
		switch s {
		case SectionStorage:
			missing = append(missing, c.Storage.missing()...)
		case SectionDatabase:
			missing = append(missing, c.Database.missing()...)
		case SectionSynthesis:
			if strings.TrimSpace(c.Synthesis.APIKey) == "" {
				missing = append(missing, "ELEVENLABS_API_KEY")
			}
		case SectionDeckOwner:
			if strings.TrimSpace(c.Publish.AdminUserID) == "" {
				missing = append(missing, "ADMIN_USER_ID")
			} else if _, err := uuid.Parse(c.Publish.AdminUserID); err != nil {
				return fmt.Errorf("ADMIN_USER_ID is not a UUID: %w", err)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c StorageConfig) missing() []string {
	switch c.Backend {
	case "s3":
		if c.Bucket == "" {
			return []string{"S3_BUCKET_NAME"}
		}
	case "gcs":
		if c.GCSBucket == "" {
			return []string{"GCS_BUCKET_NAME"}
		}
	case "fs":
		if c.BaseDir == "" {
			return []string{"STORAGE_BASE_DIR"}
		}
	case "memory":
	default:
		return []string{fmt.Sprintf("STORAGE_BACKEND (unsupported %q)", c.Backend)}
	}
	return nil
}

func (c DatabaseConfig) missing() []string {
	switch c.Driver {
	case "postgres":
		if c.URL != "" {
			return nil
		}
		var out []string
		for _, f := range []struct{ name, value string }{
			{"SUPABASE_DB_USER", c.User},
			{"SUPABASE_DB_PASSWORD", c.Password},
			{"SUPABASE_DB_HOST", c.Host},
		} {
			if f.value == "" {
				out = append(out, f.name)
			}
		}
		return out
	case "sqlite":
		if c.SQLitePath == "" {
			return []string{"SQLITE_PATH"}
		}
	case "memory":
	default:
		return []string{fmt.Sprintf("DATABASE_DRIVER (unsupported %q)", c.Driver)}
	}
	return nil
}

// ConnString returns the postgres connection string
func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(int(c.Port)),
		Path:   c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// BuildBlobStore creates the configured store. The returned close function
// is never nil.
func (c *Config) BuildBlobStore(ctx context.Context) (publish.BlobStore, func() error, error) {
	noop := func() error { return nil }
	s := c.Storage
	switch s.Backend {
	case "memory":
		return memorystorage.New(), noop, nil
	case "fs":
		store, err := fsstorage.New(fsstorage.Config{BaseDir: s.BaseDir})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "s3":
		store, err := s3storage.New(s3storage.Config{
			Region:          s.Region,
			Bucket:          s.Bucket,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.UsePathStyle,
			EnableSSE:       s.EnableSSE,
			SSEAlgorithm:    s.SSEAlgorithm,
			SSEKMSKeyID:     s.SSEKMSKeyID,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "gcs":
		store, err := gcsstorage.New(ctx, gcsstorage.Config{
			Bucket:          s.GCSBucket,
			CredentialsFile: s.GCSCredentialsFile,
			Endpoint:        s.GCSEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend type: %s", s.Backend)
}

// BuildRepository opens the configured relational store. The returned close
// function is never nil.
func (c *Config) BuildRepository(ctx context.Context) (publish.Repository, func(), error) {
	switch c.Database.Driver {
	case "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		repo, err := reposqlite.Open(c.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "postgres":
		pool, err := NewPool(ctx, c.Database)
		if err != nil {
			return nil, nil, err
		}
		return repopg.NewWithPool(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported database type: %s", c.Database.Driver)
}

// NewPool connects to postgres, setting search_path on every connection when
// a schema is configured.
func NewPool(ctx context.Context, db DatabaseConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(db.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if schema := db.Schema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// BuildSynthesizer returns the speech provider, or nil when no API key is set
func (c *Config) BuildSynthesizer() (publish.Synthesizer, error) {
	if strings.TrimSpace(c.Synthesis.APIKey) == "" {
		return nil, nil
	}
	client, err := elevenlabs.New(elevenlabs.Config{
		APIKey:  c.Synthesis.APIKey,
		BaseURL: c.Synthesis.BaseURL,
		Model:   c.Synthesis.Model,
		Timeout: c.Synthesis.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Voices returns the stock voice table with any configured overrides
func (c *Config) Voices() publish.VoiceTable {
	voices := publish.DefaultVoiceTable().
		With(publish.LanguageFrench, c.Synthesis.FrenchVoice).
		With(publish.LanguageSpanish, c.Synthesis.SpanishVoice)
	if c.Synthesis.DefaultVoice != "" {
		voices.Default = c.Synthesis.DefaultVoice
	}
	return voices
}

// DefaultOwner parses ADMIN_USER_ID; an unset value yields uuid.Nil
func (c *Config) DefaultOwner() (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Publish.AdminUserID)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("ADMIN_USER_ID is not a UUID")
	}
	return id, nil
}
