package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/joinville/accounts/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewS3DocumentArchive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3DocumentArchive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3DocumentArchive(&config.StorageConfig{AccessKeyID: "k", SecretAccessKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3DocumentArchive(&config.StorageConfig{Bucket: "b", SecretAccessKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3DocumentArchive(&config.StorageConfig{Bucket: "b", AccessKeyID: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config creates archive", func(t *testing.T) {
		archive, err := NewS3DocumentArchive(&config.StorageConfig{
			Bucket:          "assinaturas",
			AccessKeyID:     "k",
			SecretAccessKey: "s",
			Endpoint:        "minio.local:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "assinaturas", archive.Bucket())
	})
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
}

func fakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Content-Type")})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestS3DocumentArchive_Store(t *testing.T) {
	server, recorded := fakeS3(t)

	archive, err := NewS3DocumentArchive(&config.StorageConfig{
		Bucket:          "assinaturas",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
		Endpoint:        server.URL,
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	key := "52998224725/2400001234/20241015T120000-termo_de_responsabilidade.pdf"
	require.NoError(t, archive.Store(context.Background(), key, []byte("%PDF-1.4"), "application/pdf"))

	reqs := recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/assinaturas/signature/"+key, reqs[0].path)
	assert.Equal(t, "application/pdf", reqs[0].contentType)

	assert.Error(t, archive.Store(context.Background(), "", nil, "application/pdf"))
}

func TestS3DocumentArchive_EnsureBucketExisting(t *testing.T) {
	server, recorded := fakeS3(t)

	archive, err := NewS3DocumentArchive(&config.StorageConfig{
		Bucket: "assinaturas", AccessKeyID: "k", SecretAccessKey: "s", Endpoint: server.URL, UsePathStyle: true,
	})
	require.NoError(t, err)

	require.NoError(t, archive.EnsureBucket(context.Background()))
	reqs := recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].method)
}

func TestNew_DisabledIsNop(t *testing.T) {
	archive, err := New(context.Background(), config.StorageConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopDocumentArchive{}, archive)
	assert.NoError(t, archive.Store(context.Background(), "k", []byte("x"), "application/pdf"))
}
