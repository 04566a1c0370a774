package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/autopay/internal/shared/constants"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/utils"
)

// Recovery turns a handler panic into a 500 envelope. A panic caused by the
// client hanging up is logged and the request aborted without a body.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		fields := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"error", recovered,
		}

		if clientGone(recovered) {
			log.Warnw("client connection lost during request", fields...)
			c.Abort()
			return
		}

		if principal, ok := GetPrincipal(c); ok {
			fields = append(fields, "principal", principal)
		}
		fields = append(fields, "stack", string(debug.Stack()))
		log.Errorw("panic recovered", fields...)

		utils.ErrorResponse(c, http.StatusInternalServerError, constants.ErrMsgInternalServerError)
	})
}

func clientGone(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
