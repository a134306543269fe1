// Package db opens the database holding the file catalog
package db

import (
	"bitwise74/file-catalog/internal/model"
	"bitwise74/file-catalog/pkg/util"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New opens the database and migrates the schema. Unique violations are
// translated to gorm.ErrDuplicatedKey.
func New(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverSQLite, "":
		// If running in a docker container the host should mount the
		// database file using volumes, otherwise it's lost with the container
		if util.IsRunningInDocker() {
			if _, err := os.Stat(dsn); errors.Is(err, fs.ErrNotExist) {
				zap.L().Warn("SQLite database file not mounted, it will be lost when the container stops", zap.String("path", dsn))
			}
		}

		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", driver, err)
	}

	if err := db.AutoMigrate(&model.File{}); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
