package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const controlTokenIssuer = "geek-ludo"

var (
	errEmptySecret   = errors.New("control token secret cannot be empty")
	errEmptyDeviceID = errors.New("device id cannot be empty")
)

// ControlClaims 是控制令牌携带的声明，device_id 与中间件读取的键一致
type ControlClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// AuthService 为本机控制接口签发令牌。
// 控制接口只监听本机，令牌只用来区分本进程拉起的界面和机器上的其他程序。
type AuthService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService expiryHours <= 0 时使用 24 小时
func NewAuthService(secret string, expiryHours int) (*AuthService, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if expiryHours <= 0 {
		expiryHours = 24
	}
	return &AuthService{
		secret: []byte(secret),
		ttl:    time.Duration(expiryHours) * time.Hour,
		now:    time.Now,
	}, nil
}

// IssueToken 为本设备签发一个 HS256 控制令牌
func (s *AuthService) IssueToken(deviceID string) (string, error) {
	if deviceID == "" {
		return "", errEmptyDeviceID
	}
	issuedAt := s.now()
	claims := ControlClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    controlTokenIssuer,
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign control token: %v: %w", err, ErrInternalServer)
	}
	return signed, nil
}
