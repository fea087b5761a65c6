package publish_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/publish"
)

// mockSynthesizer is a testify mock of publish.Synthesizer
type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, req publish.SpeechRequest) (*publish.SpeechResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*publish.SpeechResult)
	return res, args.Error(1)
}

// mockBlobStore is a testify mock of publish.BlobStore
type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	_, _ = io.Copy(io.Discard, reader)
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

func (m *mockBlobStore) UploadWithParams(ctx context.Context, reader io.Reader, params publish.UploadParams) error {
	_, _ = io.Copy(io.Discard, reader)
	args := m.Called(ctx, params)
	return args.Error(0)
}

// failingRepository rejects every transaction
type failingRepository struct {
	err error
}

func (r failingRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx publish.MetadataTx) error) error {
	return r.err
}

var errConnectionRefused = errors.New("connection refused")

// writeFolder creates dir/name with the given files and returns its path
func writeFolder(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for f, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(content), 0o644))
	}
	return dir
}
