package service

import (
	"bitwise74/file-catalog/internal/model"
	"bitwise74/file-catalog/pkg/apperr"
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

// Content is the payload of an upload. Open is called once for hashing and
// once more for storing, every call must return the stream from the start.
type Content struct {
	Open        func() (io.ReadCloser, error)
	Size        int64
	ContentType string // Type declared by the stream itself
}

// BytesContent wraps an in memory payload.
func BytesContent(b []byte, contentType string) Content {
	return Content{
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
		Size:        int64(len(b)),
		ContentType: contentType,
	}
}

type UploadRequest struct {
	UserID      string
	FileName    string
	Visibility  model.Visibility
	Tags        []string
	ContentType string
	Content     Content
}

// Download is an open blob stream plus what a client needs to save it.
// The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

// UploadService validates, deduplicates and indexes uploaded files. Requests
// share no in-process locks; per user uniqueness is checked up front and
// enforced again by the index when the record is written.
type UploadService struct {
	index  MetadataIndex
	blobs  BlobStore
	hasher HashCalculator

	now   func() time.Time
	newID func() string
}

func NewUploadService(index MetadataIndex, blobs BlobStore, hasher HashCalculator) *UploadService {
	return &UploadService{
		index:  index,
		blobs:  blobs,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Upload stores a new file. Nothing is written before every check passed.
// If the record can't be written after the blob was stored the blob is left
// behind for BlobCleanup to collect.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (f *model.File, err error) {
	const op = "upload"
	defer func() { observe(op, err) }()

	if req.UserID == "" {
		return nil, apperr.E(apperr.KindValidation, op, "user id is required")
	}

	if strings.TrimSpace(req.FileName) == "" {
		return nil, apperr.E(apperr.KindValidation, op, "file name is required")
	}

	if req.Content.Open == nil {
		return nil, apperr.E(apperr.KindValidation, op, "no file provided")
	}

	tags, err := NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	hash, err := s.validateAndHash(ctx, req)
	if err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = req.Content.ContentType
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	r, err := req.Content.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, op, "failed to open file", err)
	}
	defer r.Close()

	counter := &countingReader{r: r}

	blobID, err := s.blobs.Store(ctx, counter, req.FileName, contentType)
	if err != nil {
		return nil, storageErr(op, "failed to store file", err)
	}

	visibility := req.Visibility
	if !visibility.Valid() {
		visibility = model.VisibilityPrivate
	}

	fileID := s.newID()
	f = &model.File{
		ID:           fileID,
		UserID:       req.UserID,
		FileName:     req.FileName,
		Tags:         tags,
		FileSize:     counter.n,
		Visibility:   visibility,
		UploadDate:   s.now(),
		Hash:         hash,
		ContentType:  contentType,
		DownloadLink: model.DownloadLinkFor(fileID),
		BlobID:       blobID,
	}

	zap.L().Debug("Saving file record", zap.String("fileID", fileID), zap.String("userID", req.UserID))

	if err := s.index.Create(ctx, f); err != nil {
		zap.L().Warn("Blob stored but record write failed, blob is orphaned",
			zap.String("blobID", blobID),
			zap.Error(err))

		if apperr.Is(err, apperr.KindConflict) {
			duplicatesRejectedTotal.WithLabelValues("index").Inc()
		}

		return nil, indexErr(op, err)
	}

	uploadedBytesTotal.Add(float64(f.FileSize))

	zap.L().Info("File uploaded",
		zap.String("fileID", fileID),
		zap.String("userID", req.UserID),
		zap.Int64("size", f.FileSize),
		zap.String("hash", hash))

	return f, nil
}

// validateAndHash runs the per user uniqueness checks. The name check comes
// first so duplicates by name are rejected without reading the content.
func (s *UploadService) validateAndHash(ctx context.Context, req UploadRequest) (string, error) {
	const op = "upload"

	exists, err := s.index.ExistsByUserAndFileName(ctx, req.UserID, req.FileName)
	if err != nil {
		return "", indexErr(op, err)
	}

	if exists {
		duplicatesRejectedTotal.WithLabelValues("filename").Inc()
		return "", apperr.E(apperr.KindConflict, op, "duplicate filename")
	}

	r, err := req.Content.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, op, "failed to open file", err)
	}

	hash, err := s.hasher.CalculateHash(r)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, op, "failed to calculate file hash", err)
	}

	exists, err = s.index.ExistsByUserAndHash(ctx, req.UserID, hash)
	if err != nil {
		return "", indexErr(op, err)
	}

	if exists {
		duplicatesRejectedTotal.WithLabelValues("content").Inc()
		return "", apperr.E(apperr.KindConflict, op, "duplicate content")
	}

	return hash, nil
}

// Rename changes the name of a file owned by userID.
func (s *UploadService) Rename(ctx context.Context, fileID, newFileName, userID string) (f *model.File, err error) {
	const op = "rename"
	defer func() { observe(op, err) }()

	if userID == "" {
		return nil, apperr.E(apperr.KindValidation, op, "user should be specified")
	}

	if strings.TrimSpace(newFileName) == "" {
		return nil, apperr.E(apperr.KindValidation, op, "new file name is required")
	}

	f, err = s.findOwned(ctx, op, fileID, userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.index.ExistsByUserAndFileName(ctx, userID, newFileName)
	if err != nil {
		return nil, indexErr(op, err)
	}

	if exists {
		duplicatesRejectedTotal.WithLabelValues("filename").Inc()
		return nil, apperr.E(apperr.KindConflict, op, "duplicate filename")
	}

	f.FileName = newFileName

	if err := s.index.Update(ctx, f); err != nil {
		return nil, indexErr(op, err)
	}

	zap.L().Debug("Renamed file", zap.String("fileID", fileID), zap.String("name", newFileName))
	return f, nil
}

// ListFiles returns one page of files. Public listings span every owner and
// ignore userID, anything else lists the files of userID regardless of
// their visibility.
func (s *UploadService) ListFiles(ctx context.Context, userID string, visibility model.Visibility, tag string, page model.PageRequest) (p *model.Page[model.File], err error) {
	const op = "list"
	defer func() { observe(op, err) }()

	page, err = page.Normalize()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, op, err.Error(), err)
	}

	filter := model.Filter{Tag: NormalizeTag(tag)}

	if visibility == model.VisibilityPublic {
		public := model.VisibilityPublic
		filter.Visibility = &public

		zap.L().Debug("Listing public files", zap.String("tag", filter.Tag))
	} else {
		filter.UserID = &userID

		zap.L().Debug("Listing user files", zap.String("userID", userID), zap.String("tag", filter.Tag))
	}

	p, err = s.index.Query(ctx, filter, page)
	if err != nil {
		return nil, indexErr(op, err)
	}

	return p, nil
}

// ListTags returns every distinct tag used by userID, sorted.
func (s *UploadService) ListTags(ctx context.Context, userID string) (tags []string, err error) {
	const op = "list_tags"
	defer func() { observe(op, err) }()

	if userID == "" {
		return nil, apperr.E(apperr.KindValidation, op, "user should be specified")
	}

	tags, err = s.index.DistinctTagsForUser(ctx, userID)
	if err != nil {
		return nil, indexErr(op, err)
	}

	return tags, nil
}

// DeleteFile removes the record first so the file disappears from every
// listing, then its blob. A failed blob delete is reported but the record
// stays gone.
func (s *UploadService) DeleteFile(ctx context.Context, fileID, userID string) (err error) {
	const op = "delete"
	defer func() { observe(op, err) }()

	if userID == "" {
		return apperr.E(apperr.KindValidation, op, "user should be specified")
	}

	f, err := s.findOwned(ctx, op, fileID, userID)
	if err != nil {
		return err
	}

	if err := s.index.DeleteByID(ctx, fileID); err != nil {
		return indexErr(op, err)
	}

	zap.L().Debug("Deleted file record", zap.String("fileID", fileID))

	if err := s.blobs.Delete(ctx, f.BlobID); err != nil {
		zap.L().Error("Failed to delete blob of deleted file",
			zap.String("fileID", fileID),
			zap.String("blobID", f.BlobID),
			zap.Error(err))

		return storageErr(op, "failed to delete file content", err)
	}

	zap.L().Info("File deleted", zap.String("fileID", fileID), zap.String("userID", userID))
	return nil
}

// DownloadFile opens the content of a file. Neither ownership nor
// visibility is checked, anyone holding the id can download.
func (s *UploadService) DownloadFile(ctx context.Context, fileID string) (d *Download, err error) {
	const op = "download"
	defer func() { observe(op, err) }()

	f, err := s.index.FindByID(ctx, fileID)
	if err != nil {
		return nil, indexErr(op, err)
	}

	body, err := s.blobs.Fetch(ctx, f.BlobID)
	if err != nil {
		return nil, storageErr(op, "failed to read file", err)
	}

	return &Download{
		Body:        body,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		Size:        f.FileSize,
	}, nil
}

// ChangeVisibility updates the visibility of a file owned by userID.
func (s *UploadService) ChangeVisibility(ctx context.Context, fileID, userID string, visibility model.Visibility) (f *model.File, err error) {
	const op = "change_visibility"
	defer func() { observe(op, err) }()

	if userID == "" {
		return nil, apperr.E(apperr.KindValidation, op, "user should be specified")
	}

	if !visibility.Valid() {
		return nil, apperr.E(apperr.KindValidation, op, "invalid visibility")
	}

	f, err = s.findOwned(ctx, op, fileID, userID)
	if err != nil {
		return nil, err
	}

	f.Visibility = visibility

	if err := s.index.Update(ctx, f); err != nil {
		return nil, indexErr(op, err)
	}

	zap.L().Debug("Changed file visibility", zap.String("fileID", fileID), zap.String("visibility", string(visibility)))
	return f, nil
}

// UserStats sums up the files owned by userID.
func (s *UploadService) UserStats(ctx context.Context, userID string) (st *model.Stats, err error) {
	const op = "stats"
	defer func() { observe(op, err) }()

	if userID == "" {
		return nil, apperr.E(apperr.KindValidation, op, "user should be specified")
	}

	st, err = s.index.UsageForUser(ctx, userID)
	if err != nil {
		return nil, indexErr(op, err)
	}

	return st, nil
}

func (s *UploadService) findOwned(ctx context.Context, op, fileID, userID string) (*model.File, error) {
	f, err := s.index.FindByID(ctx, fileID)
	if err != nil {
		return nil, indexErr(op, err)
	}

	if !f.OwnedBy(userID) {
		return nil, apperr.E(apperr.KindForbidden, op, "not owner")
	}

	return f, nil
}

// indexErr keeps the kind the index assigned, anything else is internal.
func indexErr(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}

	return apperr.Wrap(apperr.KindInternal, op, "metadata index failure", err)
}

// storageErr keeps not found errors from the blob store, anything else is a
// storage failure.
func storageErr(op, msg string, err error) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	return apperr.Wrap(apperr.KindStorage, op, msg, err)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
