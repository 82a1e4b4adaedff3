// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "dukani-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	c.Abort()

	response := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	if len(data) > 0 {
		response.Data = data[0]
	}

	c.JSON(code, response)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

// NotFound sends a 404 Not Found response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

// PaymentRequired sends a 402 Payment Required response.
func PaymentRequired(c *gin.Context, message string, err error) {
	Error(c, http.StatusPaymentRequired, message, err)
}

// FromError maps a service error onto the matching HTTP status.
func FromError(c *gin.Context, message string, err error) {
	Error(c, statusOf(err), message, err)
}

func statusOf(err error) int {
	switch {
	case xerrors.Is(err, xerrors.ErrNotFound):
		return http.StatusNotFound
	case xerrors.Is(err, xerrors.ErrUnauthorized), xerrors.Is(err, xerrors.ErrSessionExpired):
		return http.StatusUnauthorized
	case xerrors.Is(err, xerrors.ErrForbidden):
		return http.StatusForbidden
	case xerrors.Is(err, xerrors.ErrPaymentRequired), xerrors.Is(err, xerrors.ErrQuotaExceeded):
		return http.StatusPaymentRequired
	case xerrors.Is(err, xerrors.ErrConflict):
		return http.StatusConflict
	case xerrors.Is(err, xerrors.ErrInvalidInput), xerrors.Is(err, xerrors.ErrBadRequest),
		xerrors.Is(err, xerrors.ErrPlanExpired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
