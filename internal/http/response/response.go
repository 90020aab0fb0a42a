package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegen-backend/internal/platform/apierr"
)

// ErrorBody is the shape of every 4xx/5xx response.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondErr classifies err through apierr. Unclassified errors become a
// generic 500 so internal messages do not leak.
func RespondErr(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	body := ErrorBody{Error: err.Error(), Code: code}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		body.Details = ae.Details
	} else if status == http.StatusInternalServerError {
		_ = c.Error(err)
		body.Error = "internal server error"
	}
	c.AbortWithStatusJSON(status, body)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
