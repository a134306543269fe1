package file

import (
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
)

type renameRequest struct {
	UserID      string `json:"userId"`
	NewFileName string `json:"newFileName"`
}

func FileRename(c *gin.Context, d *internal.Deps) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	c.Set("userID", req.UserID)

	if err := validators.FileName(req.NewFileName); err != nil {
		badRequest(c, err.Error())
		return
	}

	f, err := d.Files.Rename(c.Request.Context(), c.Param("fileId"), req.NewFileName, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, f)
}
