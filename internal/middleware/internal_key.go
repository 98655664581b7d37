package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/logger"
)

// InternalAPIKeyMiddleware guards the cron-facing routes (the subscription
// expiry sweep) with the X-API-Key header. An empty key disables them.
func InternalAPIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			RespondWithError(c, apperrors.ErrInternalAPIDisabled)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader("X-API-Key")), []byte(apiKey)) != 1 {
			logger.Get().Warnw("rejected internal call",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"request_id", c.GetString(requestIDKey),
			)
			RespondWithError(c, apperrors.ErrInvalidAPIKey)
			c.Abort()
			return
		}
		c.Next()
	}
}
