package storage

import (
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/apperr"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tmpSuffix = ".tmp"

// DiskStore keeps blobs as files below a root directory, sharded by the
// first two characters of their id.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("no storage path provided")
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s, %w", root, err)
	}

	return &DiskStore{root: root}, nil
}

// Store writes to a temporary file first and renames it into place once
// synced, so a blob is either complete or absent.
func (d *DiskStore) Store(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	id, err := newBlobID()
	if err != nil {
		return "", err
	}

	final := d.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(final), 0o750); err != nil {
		return "", fmt.Errorf("failed to create shard directory, %w", err)
	}

	tmp := final + tmpSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file, %w", err)
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write blob, %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync blob, %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close blob, %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move blob into place, %w", err)
	}

	return id, nil
}

func (d *DiskStore) Fetch(ctx context.Context, blobID string) (io.ReadCloser, error) {
	if !validBlobID(blobID) {
		return nil, apperr.E(apperr.KindNotFound, "fetch", "blob not found")
	}

	f, err := os.Open(d.pathFor(blobID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.E(apperr.KindNotFound, "fetch", "blob not found")
		}

		return nil, fmt.Errorf("failed to open blob %s, %w", blobID, err)
	}

	return f, nil
}

// Delete succeeds for blobs that are already gone.
func (d *DiskStore) Delete(ctx context.Context, blobID string) error {
	if !validBlobID(blobID) {
		return nil
	}

	err := os.Remove(d.pathFor(blobID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s, %w", blobID, err)
	}

	return nil
}

func (d *DiskStore) ListBlobs(ctx context.Context, fn func(service.BlobInfo) error) error {
	return filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if e.IsDir() || strings.HasSuffix(e.Name(), tmpSuffix) {
			return nil
		}

		info, err := e.Info()
		if err != nil {
			// Removed while walking
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		return fn(service.BlobInfo{ID: e.Name(), ModTime: info.ModTime()})
	})
}

func (d *DiskStore) pathFor(id string) string {
	if len(id) < 2 {
		return filepath.Join(d.root, id)
	}

	return filepath.Join(d.root, id[:2], id)
}

// Ids come from the index, but never let one escape the root
func validBlobID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\.`)
}

// ctxReader stops a copy once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
