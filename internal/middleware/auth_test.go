package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/view", middleware.Auth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("device_id"))
	})
	return r
}

func TestAuth(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{"device_id": "uid-local", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, testSecret, jwt.MapClaims{"device_id": "uid-local", "exp": time.Now().Add(-time.Hour).Unix()})
	forged := signToken(t, "other-secret", jwt.MapClaims{"device_id": "uid-local"})
	noDevice := signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	testCases := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "Bearer 头", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "uid-local"},
		{name: "查询参数", query: "?token=" + valid, wantStatus: http.StatusOK, wantBody: "uid-local"},
		{name: "缺少令牌", wantStatus: http.StatusUnauthorized},
		{name: "格式错误", header: "Token " + valid, wantStatus: http.StatusUnauthorized},
		{name: "已过期", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "签名错误", header: "Bearer " + forged, wantStatus: http.StatusUnauthorized},
		{name: "缺少 device_id", header: "Bearer " + noDevice, wantStatus: http.StatusUnauthorized},
	}
	router := newAuthRouter()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/view"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestAuth_EmptySecretPanics(t *testing.T) {
	assert.Panics(t, func() { middleware.Auth("") })
}
