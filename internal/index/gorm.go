// Package index stores file records in a SQL database through gorm
package index

import (
	"bitwise74/file-catalog/internal/model"
	"bitwise74/file-catalog/pkg/apperr"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormIndex is a MetadataIndex backed by the files table. The database must
// be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type GormIndex struct {
	db *gorm.DB
}

func NewGormIndex(db *gorm.DB) *GormIndex {
	return &GormIndex{db: db}
}

// Create inserts a new record.
func (g *GormIndex) Create(ctx context.Context, f *model.File) error {
	err := g.db.WithContext(ctx).Create(f).Error
	if err != nil {
		return writeErr("create", err)
	}

	return nil
}

// Update rewrites every column of an existing record. A record that is gone
// by the time the write runs is reported as not found, never recreated.
func (g *GormIndex) Update(ctx context.Context, f *model.File) error {
	if f.ID == "" {
		return apperr.E(apperr.KindNotFound, "update", "file not found")
	}

	res := g.db.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", f.ID).
		Select("*").
		Omit("id").
		Updates(f)
	if res.Error != nil {
		return writeErr("update", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.E(apperr.KindNotFound, "update", "file not found")
	}

	return nil
}

func writeErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, op, "duplicate filename or content", err)
	}

	return fmt.Errorf("failed to write file record, %w", err)
}

func (g *GormIndex) FindByID(ctx context.Context, fileID string) (*model.File, error) {
	var f model.File

	err := g.db.WithContext(ctx).
		Where("id = ?", fileID).
		First(&f).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.KindNotFound, "find", "file not found")
		}

		return nil, fmt.Errorf("failed to look up file, %w", err)
	}

	return &f, nil
}

func (g *GormIndex) ExistsByUserAndFileName(ctx context.Context, userID, fileName string) (bool, error) {
	return g.exists(ctx, "user_id = ? AND file_name = ?", userID, fileName)
}

func (g *GormIndex) ExistsByUserAndHash(ctx context.Context, userID, hash string) (bool, error) {
	return g.exists(ctx, "user_id = ? AND hash = ?", userID, hash)
}

// ExistsByBlobID reports whether a record still points at blobID.
func (g *GormIndex) ExistsByBlobID(ctx context.Context, blobID string) (bool, error) {
	return g.exists(ctx, "blob_id = ?", blobID)
}

func (g *GormIndex) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64

	err := g.db.WithContext(ctx).
		Model(&model.File{}).
		Where(query, args...).
		Count(&count).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to count file records, %w", err)
	}

	return count > 0, nil
}

// Query returns one page of the records matching filter, ordered by the
// requested field and then by id so pages are stable.
func (g *GormIndex) Query(ctx context.Context, filter model.Filter, page model.PageRequest) (*model.Page[model.File], error) {
	page, err := page.Normalize()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "query", err.Error(), err)
	}

	column, ok := page.Sort.Field.Column()
	if !ok {
		return nil, apperr.E(apperr.KindValidation, "query", "unknown sort field")
	}

	scope := filterScope(filter)

	var total int64

	err = g.db.WithContext(ctx).
		Model(&model.File{}).
		Scopes(scope).
		Count(&total).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to count files, %w", err)
	}

	entries := []model.File{}

	if int64(page.Offset()) < total {
		err = g.db.WithContext(ctx).
			Scopes(scope).
			Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: page.Sort.Direction == model.Desc}).
			Order("id").
			Offset(page.Offset()).
			Limit(page.Size).
			Find(&entries).
			Error
		if err != nil {
			return nil, fmt.Errorf("failed to list files, %w", err)
		}
	}

	return model.NewPage(entries, total, page), nil
}

func filterScope(filter model.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}

		if filter.Visibility != nil {
			db = db.Where("visibility = ?", string(*filter.Visibility))
		}

		if filter.Tag != "" {
			// Tags are stored comma joined, so wrapping both sides in commas
			// matches whole tags only
			db = db.Where(`(',' || tags || ',') LIKE ? ESCAPE '\'`, "%,"+escapeLike(filter.Tag)+",%")
		}

		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (g *GormIndex) DeleteByID(ctx context.Context, fileID string) error {
	res := g.db.WithContext(ctx).
		Where("id = ?", fileID).
		Delete(&model.File{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete file record, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.E(apperr.KindNotFound, "delete", "file not found")
	}

	return nil
}

// DistinctTagsForUser unions the tag sets of every file userID owns.
func (g *GormIndex) DistinctTagsForUser(ctx context.Context, userID string) ([]string, error) {
	var sets []model.StringSlice

	err := g.db.WithContext(ctx).
		Model(&model.File{}).
		Where("user_id = ?", userID).
		Pluck("tags", &sets).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up tags, %w", err)
	}

	seen := make(map[string]struct{})
	tags := []string{}

	for _, set := range sets {
		for _, t := range set {
			if _, ok := seen[t]; ok {
				continue
			}

			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}

	sort.Strings(tags)
	return tags, nil
}

// UsageForUser aggregates the files of userID. Users without files get
// zeroed stats.
func (g *GormIndex) UsageForUser(ctx context.Context, userID string) (*model.Stats, error) {
	var row struct {
		UsedStorage   int64
		UploadedFiles int64
		PublicFiles   int64
	}

	err := g.db.WithContext(ctx).
		Model(&model.File{}).
		Select(
			"COALESCE(SUM(file_size), 0) AS used_storage, COUNT(*) AS uploaded_files, COALESCE(SUM(CASE WHEN visibility = ? THEN 1 ELSE 0 END), 0) AS public_files",
			string(model.VisibilityPublic),
		).
		Where("user_id = ?", userID).
		Scan(&row).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user usage, %w", err)
	}

	return &model.Stats{
		UserID:        userID,
		UsedStorage:   row.UsedStorage,
		UploadedFiles: row.UploadedFiles,
		PublicFiles:   row.PublicFiles,
	}, nil
}
