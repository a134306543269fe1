package file

import (
	"bitwise74/file-catalog/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func FileDelete(c *gin.Context, d *internal.Deps) {
	userID := c.Query("userId")
	if userID == "" {
		badRequest(c, "userId is required")
		return
	}

	c.Set("userID", userID)

	if err := d.Files.DeleteFile(c.Request.Context(), c.Param("fileId"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
