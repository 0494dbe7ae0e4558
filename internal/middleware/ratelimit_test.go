package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/middleware"
)

const limitedKey = "test:ratelimit:dev-1:/limited"

func newLimitedRouter(t *testing.T, max int, window time.Duration) (*miniredis.Miniredis, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	withDevice := func(c *gin.Context) {
		if id := c.GetHeader("X-Device"); id != "" {
			c.Set(middleware.DeviceIDKey, id)
		}
	}
	limit := middleware.RateLimit(client, "test:", max, window)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/limited", withDevice, limit, ok)
	r.POST("/other", withDevice, limit, ok)
	return mr, r
}

func hit(r *gin.Engine, path, device string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if device != "" {
		req.Header.Set("X-Device", device)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_ThrottlesWithRetryAfter(t *testing.T) {
	// Arrange
	_, r := newLimitedRouter(t, 2, time.Minute)

	// Act
	first := hit(r, "/limited", "dev-1")
	second := hit(r, "/limited", "dev-1")
	third := hit(r, "/limited", "dev-1")

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "60", third.Header().Get("Retry-After"))
	assert.Empty(t, second.Header().Get("Retry-After"))
}

func TestRateLimit_WindowStartsAtFirstRequest(t *testing.T) {
	mr, r := newLimitedRouter(t, 1, time.Minute)

	require.Equal(t, http.StatusOK, hit(r, "/limited", "dev-1").Code)
	assert.Equal(t, time.Minute, mr.TTL(limitedKey), "新窗口设置过期时间")

	mr.FastForward(20 * time.Second)
	throttled := hit(r, "/limited", "dev-1")

	assert.Equal(t, http.StatusTooManyRequests, throttled.Code)
	assert.Equal(t, 40*time.Second, mr.TTL(limitedKey), "窗口内的请求不延长过期时间")
	assert.Equal(t, "40", throttled.Header().Get("Retry-After"))

	mr.FastForward(40 * time.Second)
	assert.Equal(t, http.StatusOK, hit(r, "/limited", "dev-1").Code, "窗口过期后重新计数")
}

func TestRateLimit_KeysBySubjectAndRoute(t *testing.T) {
	mr, r := newLimitedRouter(t, 1, time.Minute)

	assert.Equal(t, http.StatusOK, hit(r, "/limited", "dev-1").Code)
	assert.Equal(t, http.StatusOK, hit(r, "/other", "dev-1").Code, "不同路由各自计数")
	assert.Equal(t, http.StatusOK, hit(r, "/limited", "dev-2").Code, "不同设备各自计数")
	assert.Equal(t, http.StatusOK, hit(r, "/limited", "").Code)

	assert.True(t, mr.Exists("test:ratelimit:dev-1:/other"))
	assert.True(t, mr.Exists("test:ratelimit:ip:192.0.2.1:/limited"), "未认证的请求按客户端 IP 计数")
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr, r := newLimitedRouter(t, 1, time.Minute)
	mr.Close()

	first := hit(r, "/limited", "dev-1")
	second := hit(r, "/limited", "dev-1")

	assert.Equal(t, http.StatusOK, first.Code, "Redis 不可用时放行")
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestRateLimit_InvalidArgumentsPanic(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	assert.Panics(t, func() { middleware.RateLimit(nil, "test:", 1, time.Second) })
	assert.Panics(t, func() { middleware.RateLimit(client, "test:", 0, time.Second) })
	assert.Panics(t, func() { middleware.RateLimit(client, "test:", 1, 0) })
}
