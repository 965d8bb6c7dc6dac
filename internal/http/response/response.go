package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(code string, err error) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, envelope(code, err))
}

// Abort is RespondError for middleware: it stops the handler chain.
func Abort(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, envelope(code, err))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAPIError answers with the status and code carried by err, or 500.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.JSON(ae.Status, envelope(ae.Code, ae))
}
