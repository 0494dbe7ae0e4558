package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// DeviceIDKey 是认证通过后 gin.Context 中保存设备 ID 的键
const DeviceIDKey = "device_id"

var (
	ErrMissingToken   = errors.New("missing control token")
	ErrMalformedToken = errors.New("malformed Authorization header")
	ErrInvalidToken   = errors.New("invalid or expired control token")
	ErrMissingDevice  = errors.New("control token carries no device_id")
)

// Auth 校验控制令牌 (HS256 JWT)，通过后把 device_id 写入 gin.Context。
// 令牌可以放在 Authorization: Bearer 头中，也可以放在 ?token= 参数中
// (浏览器的 WebSocket 无法设置请求头)。
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}
	key := []byte(jwtSecret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		deviceID, err := authenticate(c, parser, key)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path":      c.FullPath(),
				"client_ip": c.ClientIP(),
			}).WithError(err).Warn("Auth middleware: control request rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": rejectionMessage(err)})
			return
		}
		c.Set(DeviceIDKey, deviceID)
		c.Next()
	}
}

func authenticate(c *gin.Context, parser *jwt.Parser, key []byte) (string, error) {
	raw, err := bearerToken(c)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return key, nil }); err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidToken)
	}
	deviceID, _ := claims[DeviceIDKey].(string)
	if deviceID == "" {
		return "", ErrMissingDevice
	}
	return deviceID, nil
}

// bearerToken 优先使用 Authorization 头，没有时使用 token 查询参数
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrMalformedToken
	}
	return token, nil
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrMalformedToken), errors.Is(err, ErrMissingDevice):
		return err.Error()
	}
	return ErrInvalidToken.Error()
}
