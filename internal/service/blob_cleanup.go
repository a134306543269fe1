package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BlobInfo describes one stored blob.
type BlobInfo struct {
	ID      string
	ModTime time.Time
}

// BlobLister enumerates every blob of a store.
type BlobLister interface {
	ListBlobs(ctx context.Context, fn func(BlobInfo) error) error
}

// BlobReferencer tells whether any file record still points at a blob.
type BlobReferencer interface {
	ExistsByBlobID(ctx context.Context, blobID string) (bool, error)
}

type ListableBlobStore interface {
	BlobStore
	BlobLister
}

type CleanupResult struct {
	Scanned int
	Deleted int
	Errors  int
}

// BlobCleanup deletes blobs no file record references anymore. Those are
// left behind when a record write fails after its blob was stored. Blobs
// younger than the grace period are skipped since their upload may still be
// writing the record.
type BlobCleanup struct {
	store ListableBlobStore
	refs  BlobReferencer
	grace time.Duration
	now   func() time.Time

	mu   sync.Mutex // Serializes runs
	cron *cron.Cron
}

func NewBlobCleanup(store ListableBlobStore, refs BlobReferencer, grace time.Duration) *BlobCleanup {
	return &BlobCleanup{
		store: store,
		refs:  refs,
		grace: grace,
		now:   time.Now,
	}
}

// RunOnce performs a single sweep.
func (b *BlobCleanup) RunOnce(ctx context.Context) CleanupResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res CleanupResult
	var candidates []string

	cutoff := b.now().Add(-b.grace)

	err := b.store.ListBlobs(ctx, func(info BlobInfo) error {
		res.Scanned++

		if info.ModTime.After(cutoff) {
			return nil
		}

		used, err := b.refs.ExistsByBlobID(ctx, info.ID)
		if err != nil {
			return fmt.Errorf("failed to check blob references, %w", err)
		}

		if !used {
			candidates = append(candidates, info.ID)
		}

		return nil
	})
	if err != nil {
		zap.L().Error("Failed to list blobs for cleanup", zap.Error(err))
		res.Errors++
		return res
	}

	for _, id := range candidates {
		if err := b.store.Delete(ctx, id); err != nil {
			zap.L().Error("Failed to delete orphaned blob", zap.String("blobID", id), zap.Error(err))
			res.Errors++
			continue
		}

		res.Deleted++
		cleanupDeletedTotal.Inc()
		zap.L().Debug("Deleted orphaned blob", zap.String("blobID", id))
	}

	zap.L().Info("Blob cleanup finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("deleted", res.Deleted),
		zap.Int("errors", res.Errors))

	return res
}

// Start schedules RunOnce with a cron spec such as "@every 1h".
func (b *BlobCleanup) Start(schedule string) error {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		b.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q, %w", schedule, err)
	}

	b.cron = c
	c.Start()

	zap.L().Debug("Blob cleanup attached", zap.String("schedule", schedule), zap.Duration("grace", b.grace))
	return nil
}

// Stop unschedules the job and waits for a running sweep to end.
func (b *BlobCleanup) Stop() {
	if b.cron == nil {
		return
	}

	<-b.cron.Stop().Done()
}
