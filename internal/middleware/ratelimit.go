package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/logger"
)

var errTooManyRequests = &apperrors.AppError{Code: "RATE_LIMITED", Message: "Too many requests. Please try again later.", StatusCode: 429}

// NewRateLimiter builds an in-memory per-IP limiter from a formatted rate
// such as "20-M".
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit rejects clients that exceed the limiter's rate with 429.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		ctx, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Get().Errorw("rate limit check failed", "ip", ip, "error", err)
			abortWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			logger.Get().Warnw("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path, "limit", ctx.Limit)
			abortWithError(c, errTooManyRequests)
			return
		}

		c.Next()
	}
}
