package file

import (
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/internal/model"
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/validators"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func FileUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request body size exceeds limit",
				"requestID": requestID,
			})
			return
		}

		badRequest(c, "No file provided")
		return
	}

	userID := c.PostForm("userId")
	c.Set("userID", userID)

	fileName := c.PostForm("fileName")
	if fileName == "" {
		fileName = fh.Filename
	}

	if err := validators.FileName(fileName); err != nil {
		badRequest(c, err.Error())
		return
	}

	code, sniffed, err := validators.UploadValidator(fh, d.MaxUploadSize)
	if err != nil {
		if code >= http.StatusInternalServerError {
			zap.L().Error("Failed to validate uploaded file", zap.String("requestID", requestID), zap.Error(err))
			c.JSON(code, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})
			return
		}

		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	req := service.UploadRequest{
		UserID:      userID,
		FileName:    fileName,
		Visibility:  model.ParseVisibility(c.PostForm("visibility")),
		Tags:        c.PostFormArray("tags"),
		ContentType: c.PostForm("contentType"),
		Content: service.Content{
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
			Size:        fh.Size,
			ContentType: sniffed,
		},
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), d.JobTimeout)
	defer cancel()

	var f *model.File

	err = d.JobQueue.Do(ctx, "upload-"+requestID, func(ctx context.Context) error {
		var err error
		f, err = d.Files.Upload(ctx, req)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}
