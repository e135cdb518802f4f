package handler

import (
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

// uploadResp is the shape rich-text editors expect back from an upload.
type uploadResp struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Name   string `json:"name"`
}

// uploadedFile returns the first file of a multipart request, whatever
// its field name.  Editors disagree on the name ("upload", "image").
func uploadedFile(c echo.Context) (*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, false
	}
	keys := make([]string, 0, len(form.File))
	for k, fhs := range form.File {
		if len(fhs) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	return form.File[keys[0]][0], true
}

func noFile(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "no_file"})
}
