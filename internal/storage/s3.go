package storage

import (
	a "bitwise74/file-catalog/aws"
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/apperr"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	uploadPartSize    = 6 << 20
	uploadConcurrency = 5
)

// S3Store keeps blobs as objects in a single bucket below a key prefix.
// It works against AWS S3 and any compatible endpoint such as R2.
type S3Store struct {
	client   *s3.Client
	bucket   *string
	prefix   string
	uploader *manager.Uploader
}

func NewS3Store(c *a.S3Client, prefix string) *S3Store {
	return &S3Store{
		client: c.C,
		bucket: c.Bucket,
		prefix: prefix,
		uploader: manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = uploadConcurrency
			u.PartSize = uploadPartSize
		}),
	}
}

// Store streams r to the bucket. Payloads bigger than one part are sent as
// a multipart upload.
func (s *S3Store) Store(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	id, err := newBlobID()
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(s.prefix + id),
		Body:   r,
		Metadata: map[string]string{
			"file-name": url.PathEscape(name),
		},
	}

	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload blob to S3, %w", err)
	}

	zap.L().Debug("Blob uploaded to S3", zap.String("key", s.prefix+id))
	return id, nil
}

func (s *S3Store) Fetch(ctx context.Context, blobID string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(s.prefix + blobID),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.E(apperr.KindNotFound, "fetch", "blob not found")
		}

		return nil, fmt.Errorf("failed to get blob from S3, %w", err)
	}

	return out.Body, nil
}

// Delete succeeds for keys that don't exist, as S3 itself does.
func (s *S3Store) Delete(ctx context.Context, blobID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(s.prefix + blobID),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete blob from S3, %w", err)
	}

	return nil
}

func (s *S3Store) ListBlobs(ctx context.Context, fn func(service.BlobInfo) error) error {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: s.bucket,
		Prefix: aws.String(s.prefix),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list blobs, %w", err)
		}

		for _, obj := range page.Contents {
			info := service.BlobInfo{ID: strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}

			if err := fn(info); err != nil {
				return err
			}
		}
	}

	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
