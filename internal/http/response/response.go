package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
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

// RespondAPIError renders err with the status and code of the wrapped
// *apierr.Error. Anything else is an internal fault: it is logged and the
// client only sees a generic message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = apierr.StatusFor(ae.Code)
		}
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: ae.Error(), Code: ae.Code, Details: ae.Details}})
		return
	}
	if log != nil {
		log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	RespondError(c, http.StatusInternalServerError, apierr.CodeInternal, errInternal)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
