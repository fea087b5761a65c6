package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tendant/simple-publish/pkg/publish"
)

// Config options for the Google Cloud Storage backend
type Config struct {
	Bucket          string
	CredentialsFile string        // Optional service account JSON; default credentials otherwise
	Endpoint        string        // Optional endpoint, e.g. an emulator
	Timeout         time.Duration // Per-object upload timeout (default: 2m)
	// ChunkSize is passed to the object writer; 0 uploads in a single request
	ChunkSize int
}

// Backend is a GCS implementation of the publish.BlobStore interface
type Backend struct {
	client *storage.Client
	config Config
}

// New creates a new GCS storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
		if config.CredentialsFile == "" {
			opts = append(opts, option.WithoutAuthentication())
		}
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Backend{client: client, config: config}, nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, publish.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with additional parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params publish.UploadParams) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	w := b.client.Bucket(b.config.Bucket).Object(params.ObjectKey).NewWriter(ctx)
	w.ChunkSize = b.config.ChunkSize
	if params.MimeType != "" {
		w.ContentType = params.MimeType
	}
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", wrapAPIError(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", wrapAPIError(err))
	}
	return nil
}

// Close releases the underlying client
func (b *Backend) Close() error {
	return b.client.Close()
}

func wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %s: %w", apiErr.Code, apiErr.Message, err)
	}
	return err
}
