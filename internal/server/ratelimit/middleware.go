package ratelimit

import (
	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/dmitrijs2005/decisionkeeper/internal/logging"
	"github.com/gin-gonic/gin"
)

// Middleware hands clients over the limit to reject with common.ErrRateLimited
// and aborts the chain. Requests are keyed by gin's ClientIP. A failing
// limiter lets the request through and logs.
func Middleware(l Limiter, logger logging.Logger, reject func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.ClientIP()

		allowed, err := l.Allow(ctx, key)
		if err != nil {
			logger.Warn(ctx, "rate limit check failed", "client_ip", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			reject(c, common.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}
