package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
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

// RespondErr maps a classified error to its status. Internal failures do
// not leak their message.
func RespondErr(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	status := kind.Status()
	if status >= http.StatusInternalServerError && kind != apierr.MalformedAIResponse && kind != apierr.ValidationFailure {
		_ = c.Error(err)
		RespondError(c, status, kind.String(), errors.New("internal error"))
		return
	}
	RespondError(c, status, kind.String(), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
