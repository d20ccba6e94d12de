package handler

import (
	"errors"
	"net/http"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error       string                   `json:"error"`
	Code        string                   `json:"code"`
	Issues      []domain.ValidationIssue `json:"issues,omitempty"`
	WaitSeconds int                      `json:"waitSeconds,omitempty"`
}

// RespondError writes err as an ErrorResponse. Errors that are not a
// *domain.Error become a 500 without leaking their message.
func RespondError(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		logger.FromContext(c.Request.Context()).WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  string(domain.KindPersistenceError),
		})
		return
	}

	status := derr.Status()
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).WithError(err).Error("Request failed")
	}
	c.JSON(status, ErrorResponse{
		Error:       derr.Message,
		Code:        string(derr.Kind),
		Issues:      derr.Issues,
		WaitSeconds: derr.WaitSeconds,
	})
}

func invalidInput(c *gin.Context, message string) {
	RespondError(c, domain.NewError(domain.KindInvalidInput, message, nil))
}
