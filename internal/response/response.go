package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/service"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success sends data as the plain JSON body.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

// NoContent sends an empty response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error response with the code's generic message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ErrorBody{Status: statusCode, Message: GetMessage(code)})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, ErrorBody{Status: statusCode, Message: GetMessage(code), Fields: fields})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Status: statusCode, Message: GetMessage(code)})
}

// FromError maps a service error onto its HTTP status. Unknown errors are
// attached to the context for the access log and reported without detail.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorBody{Status: http.StatusNotFound, Message: err.Error()})
	case errors.Is(err, service.ErrEnrollmentConflict):
		c.JSON(http.StatusConflict, ErrorBody{Status: http.StatusConflict, Message: err.Error()})
	default:
		_ = c.Error(err)
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}
