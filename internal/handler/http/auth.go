package http

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/dto"
	"geek-ludo/internal/service"
)

// AuthHandler 为本机界面签发控制令牌
type AuthHandler struct {
	authService *service.AuthService
	deviceID    string
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authService *service.AuthService, deviceID string) *AuthHandler {
	if authService == nil {
		panic("AuthService cannot be nil for AuthHandler")
	}
	return &AuthHandler{authService: authService, deviceID: deviceID}
}

// Token 只对回环地址签发令牌，界面启动时调用一次。
func (h *AuthHandler) Token(c *gin.Context) {
	ip := net.ParseIP(c.ClientIP())
	if ip == nil || !ip.IsLoopback() {
		logrus.WithField("client_ip", c.ClientIP()).Warn("Handler.Token: refused non-loopback caller")
		abortWithError(c, http.StatusForbidden, "token is only issued to local callers")
		return
	}
	token, err := h.authService.IssueToken(h.deviceID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, dto.TokenResponse{Token: token})
}
