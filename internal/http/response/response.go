package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr answers with the status carried by err. Unmapped errors become
// a 500 with fallbackCode and a generic message.
func RespondErr(c *gin.Context, fallbackCode string, err error) {
	status, code := apierr.Status(err, fallbackCode)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, nil)
		return
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
