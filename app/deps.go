package app

import (
	"bitwise74/file-catalog/aws"
	"bitwise74/file-catalog/cloudflare"
	"bitwise74/file-catalog/config"
	"bitwise74/file-catalog/db"
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/internal/index"
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/internal/storage"
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const s3KeyPrefix = "blobs/"

// NewDeps wires every service from the loaded configuration and starts the
// worker pool and the blob cleanup job.
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	conn, err := db.New(viper.GetString("db.driver"), viper.GetString("db.dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d := &internal.Deps{
		DB:            conn,
		MaxUploadSize: config.MaxUploadBytes(),
		JobTimeout:    viper.GetDuration("upload.timeout"),
	}

	blobs, err := newBlobStore(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	hasher, err := service.NewDigestCalculator(viper.GetString("upload.hash_algo"))
	if err != nil {
		d.Close()
		return nil, err
	}

	gormIndex := index.NewGormIndex(conn)

	var idx service.MetadataIndex = gormIndex
	if size := viper.GetInt("index.cache_size"); size > 0 {
		idx = index.NewCachedIndex(gormIndex, size, viper.GetDuration("index.cache_ttl"))
	}

	d.Files = service.NewUploadService(idx, blobs, hasher)

	d.JobQueue = service.NewJobQueue(viper.GetInt("upload.max_threads"), viper.GetInt("upload.max_queued"))
	d.JobQueue.StartWorkerPool()

	if schedule := viper.GetString("gc.schedule"); schedule != "" {
		d.Cleanup = service.NewBlobCleanup(blobs, gormIndex, viper.GetDuration("gc.grace"))

		if err := d.Cleanup.Start(schedule); err != nil {
			d.Close()
			return nil, err
		}
	}

	return d, nil
}

func newBlobStore(ctx context.Context) (service.ListableBlobStore, error) {
	storageType := viper.GetString("storage.type")
	zap.L().Info("Using blob storage", zap.String("type", storageType))

	switch storageType {
	case "local":
		s, err := storage.NewDiskStore(viper.GetString("storage.local.path"))
		if err != nil {
			return nil, err
		}

		return s, nil
	case "memory":
		zap.L().Warn("Blobs are kept in memory and will be lost on restart")
		return storage.NewMemoryStore(), nil
	case "s3":
		c, err := aws.NewS3(ctx, aws.OptionsFromConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		return storage.NewS3Store(c, s3KeyPrefix), nil
	case "r2":
		c, err := cloudflare.NewR2(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 client, %w", err)
		}

		return storage.NewS3Store(c, s3KeyPrefix), nil
	default:
		return nil, fmt.Errorf("invalid storage type %q", storageType)
	}
}
