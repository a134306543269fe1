package service

import (
	"bitwise74/file-catalog/internal/model"
	"context"
	"io"
)

// HashCalculator fingerprints file contents. Implementations drain and close
// the reader and never return a partial digest.
type HashCalculator interface {
	CalculateHash(r io.ReadCloser) (string, error)
}

// BlobStore persists file payloads. Every Store call yields a fresh id, blobs
// are never shared between files.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, name, contentType string) (string, error)
	Fetch(ctx context.Context, blobID string) (io.ReadCloser, error)
	Delete(ctx context.Context, blobID string) error
}

// MetadataIndex is the document store holding file records. FindByID,
// Update and DeleteByID fail with an apperr.KindNotFound error for unknown
// ids. Create and Update fail with apperr.KindConflict when a per user
// uniqueness constraint is hit.
type MetadataIndex interface {
	Create(ctx context.Context, f *model.File) error
	Update(ctx context.Context, f *model.File) error
	FindByID(ctx context.Context, fileID string) (*model.File, error)
	ExistsByUserAndFileName(ctx context.Context, userID, fileName string) (bool, error)
	ExistsByUserAndHash(ctx context.Context, userID, hash string) (bool, error)
	Query(ctx context.Context, filter model.Filter, page model.PageRequest) (*model.Page[model.File], error)
	DeleteByID(ctx context.Context, fileID string) error
	DistinctTagsForUser(ctx context.Context, userID string) ([]string, error)
	UsageForUser(ctx context.Context, userID string) (*model.Stats, error)
}
