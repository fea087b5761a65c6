package publish

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Artifact is one object to upload. Exactly one of Data or Path is set.
type Artifact struct {
	Key      string
	Path     string
	Data     []byte
	MimeType string
}

// BlobPublisher uploads artifacts to a BlobStore
type BlobPublisher struct {
	store       BlobStore
	backend     string
	concurrency int
	hooks       *Hooks
}

// NewBlobPublisher creates a publisher. backend names the store in errors;
// concurrency bounds uploads in flight for PublishAll.
func NewBlobPublisher(store BlobStore, backend string, concurrency int) *BlobPublisher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BlobPublisher{store: store, backend: backend, concurrency: concurrency}
}

// PublishBytes stores data under key
func (p *BlobPublisher) PublishBytes(ctx context.Context, key string, data []byte, mimeType string) error {
	if err := p.put(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return err
	}
	p.hooks.executeAfterUpload(ctx, key, int64(len(data)))
	return nil
}

// PublishFile streams the file at path to key
func (p *BlobPublisher) PublishFile(ctx context.Context, key, path, mimeType string) error {
	f, err := os.Open(path)
	if err != nil {
		return &StorageError{Backend: p.backend, Key: key, Op: "open", Err: err}
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	if err := p.put(ctx, key, f, mimeType); err != nil {
		return err
	}
	p.hooks.executeAfterUpload(ctx, key, size)
	return nil
}

// PublishAll uploads every artifact and returns once all uploads have
// finished. The first failure cancels uploads not yet started and is
// returned as a *StorageError.
func (p *BlobPublisher) PublishAll(ctx context.Context, artifacts []Artifact) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, a := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &StorageError{Backend: p.backend, Key: a.Key, Op: "upload", Err: err}
			}
			mimeType := a.MimeType
			if mimeType == "" {
				mimeType = MimeTypeFor(a.Key)
			}
			if a.Data != nil {
				return p.PublishBytes(gctx, a.Key, a.Data, mimeType)
			}
			return p.PublishFile(gctx, a.Key, a.Path, mimeType)
		})
	}
	return g.Wait()
}

// put sends r to the store; without a mime type the backend picks its default
func (p *BlobPublisher) put(ctx context.Context, key string, r io.Reader, mimeType string) error {
	var err error
	if mimeType == "" {
		err = p.store.Upload(ctx, key, r)
	} else {
		err = p.store.UploadWithParams(ctx, r, UploadParams{ObjectKey: key, MimeType: mimeType})
	}
	if err != nil {
		return &StorageError{Backend: p.backend, Key: key, Op: "upload", Err: err}
	}
	return nil
}

// MimeTypeFor returns the content type stored for an artifact name
func MimeTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mdx", ".md":
		return "text/markdown; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	case ".toml":
		return "application/toml"
	}
	return "application/octet-stream"
}
