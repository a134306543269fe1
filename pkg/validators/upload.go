// Package validators checks client input before it reaches the services
package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileNameTooLong = errors.New("file name is too long")
	ErrFileNameInvalid = errors.New("file name contains invalid characters")
	ErrNoFile          = errors.New("no file provided")
)

const MaxFileNameSize = 255

const genericContentType = "application/octet-stream"

// FileName checks a client supplied file name. Emptiness is left to the
// service.
func FileName(name string) error {
	if len(name) > MaxFileNameSize {
		return ErrFileNameTooLong
	}

	if strings.ContainsFunc(name, unicode.IsControl) {
		return ErrFileNameInvalid
	}

	return nil
}

// UploadValidator checks an uploaded multipart file against maxSize and
// works out its content type. The declared part type wins, generic or
// missing types are replaced with the sniffed one. On failure the status
// code to answer with is returned.
func UploadValidator(fh *multipart.FileHeader, maxSize int64) (int, string, error) {
	if fh == nil {
		return http.StatusBadRequest, "", ErrNoFile
	}

	// Headers are easy to spoof, but checking them first is faster for legit clients
	if fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, "", err
	}
	defer f.Close()

	// And now do the checks on the actual file to avoid malicious clients
	_, err = f.Seek(maxSize, io.SeekStart)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	buf := make([]byte, 1)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return http.StatusInternalServerError, "", err
	}

	if n > 0 {
		return http.StatusRequestEntityTooLarge, "", ErrFileTooLarge
	}

	ct := fh.Header.Get("Content-Type")
	if ct != "" && ct != genericContentType {
		return 0, ct, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return http.StatusInternalServerError, "", err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return http.StatusInternalServerError, "", err
	}

	return 0, mime.String(), nil
}
