package file

import (
	"bitwise74/file-catalog/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func FileStats(c *gin.Context, d *internal.Deps) {
	userID := c.Query("userId")
	c.Set("userID", userID)

	st, err := d.Files.UserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}
