package response

import (
	"net/http"

	"civic_reporter/internal/xerrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response defines the standard API response format.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error aborts the chain and sends a failure envelope. kind is the stable
// error string clients switch on.
func Error(c *gin.Context, status int, message string, kind xerrors.Kind, data ...any) {
	c.Abort()

	res := Response{
		Success: false,
		Message: message,
		Error:   string(kind),
	}
	if len(data) > 0 {
		res.Data = data[0]
	}
	c.JSON(status, res)
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, xerrors.KindValidation)
}

var statusByKind = map[xerrors.Kind]int{
	xerrors.KindValidation:         http.StatusBadRequest,
	xerrors.KindInvalidTransition:  http.StatusUnprocessableEntity,
	xerrors.KindAuth:               http.StatusUnauthorized,
	xerrors.KindForbidden:          http.StatusForbidden,
	xerrors.KindNotFound:           http.StatusNotFound,
	xerrors.KindConflict:           http.StatusConflict,
	xerrors.KindRateLimited:        http.StatusTooManyRequests,
	xerrors.KindTimeout:            http.StatusGatewayTimeout,
	xerrors.KindBackendUnavailable: http.StatusServiceUnavailable,
	xerrors.KindInternal:           http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind xerrors.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// FromError sends the envelope for err. Server-side failures are logged with
// the full cause; the client only sees the kind's safe message or fallback.
func FromError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	kind := xerrors.KindOf(err)
	status := StatusFor(kind)
	message := fallback
	if kind != xerrors.KindInternal {
		message = xerrors.MessageOf(err, fallback)
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	} else {
		logger.Debug(fallback,
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	Error(c, status, message, kind)
}
