package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit 按 设备+路由 做固定窗口限流，防止失控的界面脚本反复提交代码把评测服务打满。
// 窗口从第一次请求开始计时，期间的请求不会延长窗口。
// Redis 不可用时放行：限流只是保护措施，不能让玩家因为缓存故障无法操作。
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 || window <= 0 {
		panic("RateLimit middleware needs a positive limit and window")
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitKey(keyPrefix, c)
		logCtx := logrus.WithFields(logrus.Fields{"key": key, "path": c.FullPath()})

		pipe := redisClient.Pipeline()
		hits := pipe.Incr(ctx, key)
		ttl := pipe.PTTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logCtx.WithError(err).Warn("Rate limiter unavailable, letting request through")
			c.Next()
			return
		}
		// 新窗口 (或者上次设置过期时间失败) 才设置过期时间
		if ttl.Val() < 0 {
			if err := redisClient.PExpire(ctx, key, window).Err(); err != nil {
				logCtx.WithError(err).Warn("Failed to set rate limit window")
			}
		}

		if hits.Val() > int64(maxRequests) {
			retry := ttl.Val()
			if retry <= 0 {
				retry = window
			}
			c.Header("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
			logCtx.WithField("hits", hits.Val()).Info("Control request throttled")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// rateLimitKey 以设备 ID 为主体，未认证的请求退化为客户端 IP
func rateLimitKey(prefix string, c *gin.Context) string {
	subject := c.GetString(DeviceIDKey)
	if subject == "" {
		subject = "ip:" + c.ClientIP()
	}
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	return prefix + "ratelimit:" + subject + ":" + route
}
