package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/logger"
	"kyatflow/internal/models"
)

// SubscriptionReader loads a user's plan, expiring it first when overdue.
type SubscriptionReader interface {
	GetSubscription(userID string) (*models.User, error)
}

// RequireActiveSubscription lets through only users on a trial or pro plan
// that has not passed its end date. It must run after AuthMiddleware.
func RequireActiveSubscription(subs SubscriptionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := subs.GetSubscription(c.GetString(ContextUserID))
		if err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if appErr.Internal != nil {
				logger.Get().Errorw("subscription check failed", "error", appErr.Internal, "path", c.Request.URL.Path)
			}
			abortWithError(c, appErr)
			return
		}

		if !user.HasActiveSubscription(time.Now()) {
			abortWithError(c, apperrors.ErrSubscriptionRequired)
			return
		}
		c.Next()
	}
}
