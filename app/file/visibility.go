package file

import (
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/internal/model"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type visibilityRequest struct {
	UserID     string `json:"userId"`
	Visibility string `json:"visibility"`
}

func FileVisibility(c *gin.Context, d *internal.Deps) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	c.Set("userID", req.UserID)

	// Unlike listings an unknown value is rejected here instead of
	// silently making the file private
	visibility := model.Visibility(strings.ToUpper(strings.TrimSpace(req.Visibility)))

	f, err := d.Files.ChangeVisibility(c.Request.Context(), c.Param("fileId"), req.UserID, visibility)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}
