package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"bitwise74/file-catalog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobCleanupRunOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, "alice", "kept.txt", "kept")

	orphan, err := f.blobs.Store(ctx, strings.NewReader("orphan"), "orphan.txt", "text/plain")
	require.NoError(t, err)

	fresh, err := f.blobs.Store(ctx, strings.NewReader("fresh"), "fresh.txt", "text/plain")
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	f.blobs.Touch(orphan, old)
	f.blobs.Touch(file.BlobID, old)

	c := service.NewBlobCleanup(f.blobs, f.idx, time.Hour)
	res := c.RunOnce(ctx)

	assert.Equal(t, service.CleanupResult{Scanned: 3, Deleted: 1}, res)
	assert.Equal(t, 2, f.blobs.Len())

	_, err = f.blobs.Fetch(ctx, orphan)
	assert.Error(t, err)

	// Young orphans survive until the grace period is over
	_, err = f.blobs.Fetch(ctx, fresh)
	assert.NoError(t, err)

	// Referenced blobs are never touched
	_, err = f.svc.DownloadFile(ctx, file.ID)
	assert.NoError(t, err)
}

func TestBlobCleanupSchedule(t *testing.T) {
	f := newFixture(t)

	c := service.NewBlobCleanup(f.blobs, f.idx, time.Hour)
	assert.Error(t, c.Start("not a schedule"))

	require.NoError(t, c.Start("@every 1h"))
	c.Stop()
}
