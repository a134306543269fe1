package service_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"testing"

	"bitwise74/file-catalog/db"
	"bitwise74/file-catalog/internal/index"
	"bitwise74/file-catalog/internal/model"
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/internal/storage"
	"bitwise74/file-catalog/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *service.UploadService
	idx   *index.GormIndex
	blobs *storage.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.New(db.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	hasher, err := service.NewDigestCalculator(service.DefaultHashAlgo)
	require.NoError(t, err)

	idx := index.NewGormIndex(conn)
	blobs := storage.NewMemoryStore()

	return &fixture{
		svc:   service.NewUploadService(idx, blobs, hasher),
		idx:   idx,
		blobs: blobs,
	}
}

func (f *fixture) upload(t *testing.T, userID, name, content string, opts ...func(*service.UploadRequest)) *model.File {
	t.Helper()

	req := service.UploadRequest{
		UserID:   userID,
		FileName: name,
		Content:  service.BytesContent([]byte(content), "text/plain"),
	}
	for _, o := range opts {
		o(&req)
	}

	file, err := f.svc.Upload(context.Background(), req)
	require.NoError(t, err)

	return file
}

func public(r *service.UploadRequest) { r.Visibility = model.VisibilityPublic }

func withTags(tags ...string) func(*service.UploadRequest) {
	return func(r *service.UploadRequest) { r.Tags = tags }
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file, err := f.svc.Upload(ctx, service.UploadRequest{
		UserID:     "alice",
		FileName:   "notes.txt",
		Visibility: model.VisibilityPublic,
		Tags:       []string{"Work", "work", "Ideas"},
		Content:    service.BytesContent([]byte("hello"), "text/plain"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, file.ID)
	assert.Equal(t, "alice", file.UserID)
	assert.Equal(t, "notes.txt", file.FileName)
	assert.Equal(t, model.StringSlice{"ideas", "work"}, file.Tags)
	assert.EqualValues(t, 5, file.FileSize)
	assert.Equal(t, model.VisibilityPublic, file.Visibility)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", file.Hash)
	assert.Equal(t, "text/plain", file.ContentType)
	assert.Equal(t, "/api/v1/files/"+file.ID+"/download", file.DownloadLink)
	assert.False(t, file.UploadDate.IsZero())

	stored, err := f.idx.FindByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.Hash, stored.Hash)
	assert.Equal(t, 1, f.blobs.Len())
}

func TestUploadDefaults(t *testing.T) {
	f := newFixture(t)

	file, err := f.svc.Upload(context.Background(), service.UploadRequest{
		UserID:   "alice",
		FileName: "blob",
		Content:  service.BytesContent([]byte{0, 1, 2}, ""),
	})
	require.NoError(t, err)

	assert.Equal(t, model.VisibilityPrivate, file.Visibility)
	assert.Equal(t, "application/octet-stream", file.ContentType)
	assert.Empty(t, file.Tags)
}

func TestUploadCallerContentTypeWins(t *testing.T) {
	f := newFixture(t)

	file := f.upload(t, "alice", "page", "<p>", func(r *service.UploadRequest) {
		r.ContentType = "text/html"
	})

	assert.Equal(t, "text/html", file.ContentType)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  service.UploadRequest
	}{
		{"no user", service.UploadRequest{FileName: "a", Content: service.BytesContent([]byte("x"), "")}},
		{"no name", service.UploadRequest{UserID: "alice", Content: service.BytesContent([]byte("x"), "")}},
		{"no content", service.UploadRequest{UserID: "alice", FileName: "a"}},
		{"too many tags", service.UploadRequest{UserID: "alice", FileName: "a", Tags: []string{"1", "2", "3", "4", "5", "6"}, Content: service.BytesContent([]byte("x"), "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(ctx, tt.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}

	assert.Zero(t, f.blobs.Len())
}

func TestUploadDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.upload(t, "alice", "a.txt", "one")

	_, err := f.svc.Upload(ctx, service.UploadRequest{UserID: "alice", FileName: "a.txt", Content: service.BytesContent([]byte("two"), "")})
	require.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "duplicate filename")

	_, err = f.svc.Upload(ctx, service.UploadRequest{UserID: "alice", FileName: "b.txt", Content: service.BytesContent([]byte("one"), "")})
	require.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "duplicate content")

	// Nothing was stored for the rejected uploads
	assert.Equal(t, 1, f.blobs.Len())

	// Other users are independent
	f.upload(t, "bob", "a.txt", "one")
	assert.Equal(t, 2, f.blobs.Len())
}

func TestUploadNameCheckedBeforeContent(t *testing.T) {
	f := newFixture(t)

	f.upload(t, "alice", "a.txt", "one")

	opened := 0
	_, err := f.svc.Upload(context.Background(), service.UploadRequest{
		UserID:   "alice",
		FileName: "a.txt",
		Content: service.Content{Open: func() (io.ReadCloser, error) {
			opened++
			return io.NopCloser(nil), nil
		}},
	})

	require.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Zero(t, opened)
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "alice", "a.txt", "one")
	f.upload(t, "alice", "b.txt", "two")

	renamed, err := f.svc.Rename(ctx, a.ID, "c.txt", "alice")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", renamed.FileName)

	stored, err := f.idx.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "c.txt", stored.FileName)

	_, err = f.svc.Rename(ctx, a.ID, "b.txt", "alice")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Renaming to its own name is a conflict too
	_, err = f.svc.Rename(ctx, a.ID, "c.txt", "alice")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Rename(ctx, a.ID, "d.txt", "mallory")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Rename(ctx, "missing", "d.txt", "alice")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Rename(ctx, a.ID, " ", "alice")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.upload(t, "alice", "b.txt", "1", withTags("work"))
	f.upload(t, "alice", "a.txt", "22", public, withTags("work", "fun"))
	f.upload(t, "alice", "c.txt", "333", withTags("fun"))
	f.upload(t, "bob", "d.txt", "4444", public, withTags("work"))

	p, err := f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "", model.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.TotalElements)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names(p.Content))

	p, err = f.svc.ListFiles(ctx, "", model.VisibilityPublic, "", model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "d.txt"}, names(p.Content))

	p, err = f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "WORK", model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names(p.Content))

	p, err = f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "", model.PageRequest{
		Page: 1,
		Size: 2,
		Sort: model.Sort{Field: model.SortByFileSize, Direction: model.Desc},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, names(p.Content))
	assert.EqualValues(t, 3, p.TotalElements)
	assert.Equal(t, 2, p.TotalPages)

	p, err = f.svc.ListFiles(ctx, "nobody", model.VisibilityPrivate, "", model.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, p.Content)

	_, err = f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "", model.PageRequest{Page: -1})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListFilesPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := range 15 {
		f.upload(t, "alice", fmt.Sprintf("file-%02d", i), fmt.Sprintf("content %d", i))
	}

	var seen []string
	for page := range 3 {
		p, err := f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "", model.PageRequest{Page: page, Size: 5})
		require.NoError(t, err)
		assert.Len(t, p.Content, 5)
		assert.EqualValues(t, 15, p.TotalElements)
		assert.Equal(t, 3, p.TotalPages)

		seen = append(seen, names(p.Content)...)
	}

	require.Len(t, seen, 15)
	assert.True(t, slices.IsSorted(seen))

	p, err := f.svc.ListFiles(ctx, "alice", model.VisibilityPrivate, "", model.PageRequest{Page: 3, Size: 5})
	require.NoError(t, err)
	assert.Empty(t, p.Content)
}

func TestListTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.upload(t, "alice", "a", "1", withTags("b", "a"))
	f.upload(t, "alice", "b", "2", withTags("c", "a"))
	f.upload(t, "bob", "c", "3", withTags("z"))

	tags, err := f.svc.ListTags(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tags)

	tags, err = f.svc.ListTags(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = f.svc.ListTags(ctx, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, "alice", "a.txt", "one")

	err := f.svc.DeleteFile(ctx, file.ID, "bob")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, 1, f.blobs.Len())

	_, err = f.idx.FindByID(ctx, file.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteFile(ctx, file.ID, "alice"))
	assert.Zero(t, f.blobs.Len())

	_, err = f.idx.FindByID(ctx, file.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.svc.DeleteFile(ctx, file.ID, "alice")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// Name and content are free again
	f.upload(t, "alice", "a.txt", "one")
}

func TestDownloadFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, "alice", "a.txt", "secret")

	// Anyone with the id can download, even private files
	dl, err := f.svc.DownloadFile(ctx, file.ID)
	require.NoError(t, err)
	defer dl.Body.Close()

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))
	assert.Equal(t, "a.txt", dl.FileName)
	assert.Equal(t, "text/plain", dl.ContentType)
	assert.EqualValues(t, 6, dl.Size)

	_, err = f.svc.DownloadFile(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestChangeVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.upload(t, "alice", "a.txt", "one")

	updated, err := f.svc.ChangeVisibility(ctx, file.ID, "alice", model.VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, model.VisibilityPublic, updated.Visibility)

	p, err := f.svc.ListFiles(ctx, "", model.VisibilityPublic, "", model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names(p.Content))

	_, err = f.svc.ChangeVisibility(ctx, file.ID, "bob", model.VisibilityPrivate)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.ChangeVisibility(ctx, file.ID, "alice", model.Visibility("SECRET"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUserStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.upload(t, "alice", "a", "1", public)
	f.upload(t, "alice", "b", "22")

	st, err := f.svc.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &model.Stats{UserID: "alice", UsedStorage: 3, UploadedFiles: 2, PublicFiles: 1}, st)

	st, err = f.svc.UserStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, st.UploadedFiles)
}

func names(files []model.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.FileName)
	}
	return out
}
