package handle

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// multipartSlack covers the multipart framing around the file part.
const multipartSlack = 1 << 20

// FileHandlers serves the /api/files routes.
type FileHandlers struct {
	svc            *service.FileService
	maxUploadBytes int64
}

// NewFileHandlers returns the handlers of svc.
func NewFileHandlers(svc *service.FileService) *FileHandlers {
	return &FileHandlers{svc: svc, maxUploadBytes: svc.Files.MaxUploadBytes}
}

// Upload stores the multipart field "file".
//
//	@Summary		Upload a file
//	@Description	Stores one file of an allowed type for the caller.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file									true	"file content"
//	@Success		201		{object}	types.Response[types.UploadResult]
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		401		{object}	types.ErrorResponse
//	@Failure		500		{object}	types.ErrorResponse
//	@Router			/api/files/upload [post]
func (h *FileHandlers) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session(c)
		if !ok {
			return
		}

		if h.maxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartSlack)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fail(c, apperr.Validation("file too large"))
				return
			}

			fail(c, apperr.Validation("no file"))

			return
		}

		f, err := fh.Open()
		if err != nil {
			fail(c, apperr.IO("open upload", err))
			return
		}
		defer f.Close()

		var r io.Reader = f
		if h.maxUploadBytes > 0 {
			r = io.LimitReader(f, h.maxUploadBytes+1)
		}

		data, err := io.ReadAll(r)
		if err != nil {
			fail(c, apperr.IO("read upload", err))
			return
		}

		rec, err := h.svc.Upload(c.Request.Context(), sess.UserID, data, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusCreated, types.OK("file uploaded",
			types.UploadResult{FileID: rec.ID, FileName: rec.StoredName}))
	}
}

// Download streams the caller's file.
//
//	@Summary	Download a file
//	@Tags		files
//	@Produce	application/octet-stream
//	@Param		id	path		string	true	"file id"
//	@Success	200	{file}		file
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/files/{id} [get]
func (h *FileHandlers) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session(c)
		if !ok {
			return
		}

		rc, rec, err := h.svc.Retrieve(c.Request.Context(), sess.UserID, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		defer rc.Close()

		etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64String(rec.StoredName))
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}

		name := rec.OriginalName
		if name == "" {
			name = rec.StoredName
		}

		contentType := rec.MimeType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.DataFromReader(http.StatusOK, rec.SizeBytes, contentType, rc, map[string]string{
			"Content-Disposition":    mime.FormatMediaType("attachment", map[string]string{"filename": name}),
			"ETag":                   etag,
			"Cache-Control":          "private, max-age=0, must-revalidate",
			"Last-Modified":          rec.CreatedAt.UTC().Format(http.TimeFormat),
			"X-Content-Type-Options": "nosniff",
		})
	}
}

// Delete removes the caller's file.
//
//	@Summary	Delete a file
//	@Tags		files
//	@Produce	json
//	@Param		id	path		string	true	"file id"
//	@Success	200	{object}	types.Response[any]
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/files/{id} [delete]
func (h *FileHandlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session(c)
		if !ok {
			return
		}

		if err := h.svc.Remove(c.Request.Context(), sess.UserID, c.Param("id")); err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, types.OK[any]("file deleted", nil))
	}
}

// List returns the caller's files, newest first.
//
//	@Summary	List files
//	@Tags		files
//	@Produce	json
//	@Success	200	{object}	types.Response[[]types.FileSummary]
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/api/files [get]
func (h *FileHandlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session(c)
		if !ok {
			return
		}

		files, err := h.svc.List(c.Request.Context(), sess.UserID)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, types.OK("files retrieved", types.NewFileSummaries(files)))
	}
}
