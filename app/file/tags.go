package file

import (
	"bitwise74/file-catalog/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func FileTags(c *gin.Context, d *internal.Deps) {
	userID := c.Query("userId")
	c.Set("userID", userID)

	tags, err := d.Files.ListTags(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}
