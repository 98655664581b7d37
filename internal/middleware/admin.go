package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
)

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if models.Role(c.GetString(ContextRole)) != models.RoleAdmin {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Administrator access required"))
			return
		}
		c.Next()
	}
}
