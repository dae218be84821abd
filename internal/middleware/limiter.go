package middleware

import (
	"github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按路由令牌桶限流，没有配置桶的路由不限流
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket, ok := l.GetBucket(l.Key(c)); ok && bucket.TakeAvailable(1) == 0 {
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
