package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/services"
)

// multipartSlack covers boundaries and part headers around the file bytes.
const multipartSlack = 1 << 20

// readUpload opens the "file" form part. The caller must close the returned file.
func readUpload(c *gin.Context, maxBytes int64) (services.UploadInput, multipart.File, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartSlack)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.UploadInput{}, nil, apierr.BadRequest("file_too_large", "file exceeds %d bytes", maxBytes)
		}
		return services.UploadInput{}, nil, apierr.BadRequest("missing_file", "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return services.UploadInput{}, nil, apierr.BadRequest("unreadable_file", "open upload: %v", err)
	}
	return services.UploadInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}
