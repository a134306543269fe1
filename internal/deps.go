package internal

import (
	"bitwise74/file-catalog/internal/service"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Files    *service.UploadService
	JobQueue *service.JobQueue
	Cleanup  *service.BlobCleanup

	MaxUploadSize int64         // Bytes
	JobTimeout    time.Duration // How long a request may wait for its job
}

// Close stops the background workers and closes the database.
func (d *Deps) Close() {
	if d.Cleanup != nil {
		d.Cleanup.Stop()
	}

	if d.JobQueue != nil {
		d.JobQueue.Stop()
	}

	if d.DB != nil {
		sqlDB, err := d.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				zap.L().Warn("Failed to close database", zap.Error(err))
			}
		}
	}
}
