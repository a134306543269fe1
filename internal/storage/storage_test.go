package storage

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	a "bitwise74/file-catalog/aws"
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/apperr"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "catalog"

func newTestS3Store(t *testing.T) *S3Store {
	t.Helper()

	backend := s3mem.New()
	require.NoError(t, backend.CreateBucket(testBucket))

	ts := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(ts.Close)

	c, err := a.NewS3(context.Background(), a.Options{
		AccessKey:       "key",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Bucket:          testBucket,
		Endpoint:        ts.URL,
		PathStyle:       true,
	})
	require.NoError(t, err)

	return NewS3Store(c, "blobs/")
}

func stores(t *testing.T) map[string]service.ListableBlobStore {
	disk, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	return map[string]service.ListableBlobStore{
		"memory": NewMemoryStore(),
		"disk":   disk,
		"s3":     newTestS3Store(t),
	}
}

func TestBlobStores(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.Store(ctx, strings.NewReader("hello world"), "hello.txt", "text/plain")
			require.NoError(t, err)
			assert.NotEmpty(t, id)

			other, err := s.Store(ctx, strings.NewReader("hello world"), "hello.txt", "text/plain")
			require.NoError(t, err)
			assert.NotEqual(t, id, other, "every store call must get its own blob")

			r, err := s.Fetch(ctx, id)
			require.NoError(t, err)

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, "hello world", string(data))

			var listed []string
			require.NoError(t, s.ListBlobs(ctx, func(info service.BlobInfo) error {
				listed = append(listed, info.ID)
				assert.False(t, info.ModTime.IsZero())
				return nil
			}))
			assert.ElementsMatch(t, []string{id, other}, listed)

			require.NoError(t, s.Delete(ctx, id))

			_, err = s.Fetch(ctx, id)
			assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

			// Deleting twice is fine
			require.NoError(t, s.Delete(ctx, id))

			_, err = s.Fetch(ctx, "unknown")
			assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
		})
	}
}

func TestBlobStoresEmptyPayload(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.Store(ctx, strings.NewReader(""), "empty", "")
			require.NoError(t, err)

			r, err := s.Fetch(ctx, id)
			require.NoError(t, err)
			defer r.Close()

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Empty(t, data)
		})
	}
}
