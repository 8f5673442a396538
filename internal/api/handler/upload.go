package handler

import (
	"errors"
	"net/http"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/media"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 1 << 20

// UploadMedia stores a story file sent as the multipart field "file".
// Only approved guides may upload.
func (h *Handler) UploadMedia(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := h.Matching.Status(ctx, currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !st.IsApproved {
		h.respondError(c, apperr.Forbidden("Only approved guides can upload media"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Uploader.MaxBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, media.ErrTooLarge(h.Uploader.MaxBytes))
			return
		}
		h.respondError(c, apperr.Validation("File is required", map[string]string{"file": "required"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.Uploader.Upload(ctx, fh.Filename, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
