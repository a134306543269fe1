package file

import (
	"bitwise74/file-catalog/internal"
	"bitwise74/file-catalog/internal/model"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func FileList(c *gin.Context, d *internal.Deps) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "Page must be a number")
		return
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(model.DefaultPageSize)))
	if err != nil {
		badRequest(c, "Size must be a number")
		return
	}

	sort, err := model.ParseSort(c.Query("sortBy"), c.Query("sortDirection"))
	if err != nil {
		badRequest(c, "Invalid sorting option")
		return
	}

	userID := c.Query("userId")
	c.Set("userID", userID)

	p, err := d.Files.ListFiles(c.Request.Context(),
		userID,
		model.ParseVisibility(c.Query("visibility")),
		c.Query("tag"),
		model.PageRequest{Page: page, Size: size, Sort: sort},
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
