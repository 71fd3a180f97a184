package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalErrorMessage replaces the error text of any 5xx response.
const InternalErrorMessage = "Internal server error"

// JSONResponse is the envelope every JSON endpoint answers with.
type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err as the envelope message. Server errors are logged
// with the request line and the client only sees InternalErrorMessage.
func RespondError(c *gin.Context, code int, err error) {
	message := err.Error()
	if code >= http.StatusInternalServerError {
		ErrorLogger.WithField("status", code).Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		message = InternalErrorMessage
	}
	RespondJSON(c, code, message, nil)
}

// RespondNoContent answers 204 with no envelope.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
