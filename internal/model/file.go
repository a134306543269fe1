// Package model defines database models
package model

import "time"

// File is a catalog entry describing one uploaded payload. A file and its
// blob live and die together, the blob is never shared between files.
type File struct {
	ID           string      `gorm:"primaryKey;size:36" json:"file_id"`
	UserID       string      `gorm:"not null;size:255;uniqueIndex:idx_files_user_name;uniqueIndex:idx_files_user_hash" json:"user_id"`
	FileName     string      `gorm:"not null;size:255;uniqueIndex:idx_files_user_name" json:"file_name"`
	Tags         StringSlice `json:"tags"`
	FileSize     int64       `json:"file_size"`
	Visibility   Visibility  `gorm:"not null;size:16;index" json:"visibility"`
	UploadDate   time.Time   `gorm:"not null" json:"upload_date"`
	Hash         string      `gorm:"not null;size:128;uniqueIndex:idx_files_user_hash" json:"hash"`
	ContentType  string      `json:"content_type"`
	DownloadLink string      `json:"download_link"`
	BlobID       string      `gorm:"not null;index" json:"-"` // Key inside the blob store
}

// DownloadLinkPrefix is where downloads are served from, the link for a
// file is DownloadLinkPrefix + id + "/download"
const DownloadLinkPrefix = "/api/v1/files/"

// DownloadLinkFor returns the stable download path of a file.
func DownloadLinkFor(fileID string) string {
	return DownloadLinkPrefix + fileID + "/download"
}

// OwnedBy reports whether userID owns the file.
func (f *File) OwnedBy(userID string) bool {
	return f.UserID == userID
}
