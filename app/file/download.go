package file

import (
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/internal/service"
	"context"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FileDownload streams the content of a file to anyone knowing its id.
func FileDownload(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")
	fileID := c.Param("fileId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), d.JobTimeout)
	defer cancel()

	var dl *service.Download

	err := d.JobQueue.Do(ctx, "download-"+requestID, func(ctx context.Context) error {
		var err error
		dl, err = d.Files.DownloadFile(ctx, fileID)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	defer dl.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName})

	c.DataFromReader(http.StatusOK, dl.Size, dl.ContentType, dl.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}
