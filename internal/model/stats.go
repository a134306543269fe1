package model

// Stats aggregates a user's catalog usage. It is computed from the files
// table, never stored.
type Stats struct {
	UserID        string `json:"user_id"`
	UsedStorage   int64  `json:"used_storage"`
	UploadedFiles int64  `json:"uploaded_files"`
	PublicFiles   int64  `json:"public_files"`
}
