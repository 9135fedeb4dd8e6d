package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/videotube/internal/common"
	"github.com/gin-gonic/gin"
)

type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, apiResponse{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind common.Kind) int {
	switch kind {
	case common.KindMissingInput, common.KindInvalidInput:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindAlreadyExists:
		return http.StatusConflict
	case common.KindInvalidCredentials, common.KindUnauthenticated, common.KindExpired:
		return http.StatusUnauthorized
	case common.KindRateLimited:
		return http.StatusTooManyRequests
	case common.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error envelope. Messages of server-side
// failures are not passed to the client.
func abortWithError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	switch kind {
	case common.KindStoreUnavailable:
		msg = "service temporarily unavailable"
	case common.KindUnknown:
		msg = "internal error"
	case common.KindExpired:
		msg = "refresh token is expired or used"
	}

	if kind.Retriable() {
		c.Header("Retry-After", "1")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, apiError{StatusCode: status, Message: msg, Success: false})
}

func badBody(c *gin.Context, err error) {
	abortWithError(c, fmt.Errorf("%w: malformed request body: %v", common.ErrInvalidInput, err))
}
