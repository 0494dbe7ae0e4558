package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/repository"
)

// IdentityProvider 提供稳定的设备标识，并记住上次使用的名字和房间码。
type IdentityProvider struct {
	prefs repository.PreferenceRepository
	newID func() string
}

// NewIdentityProvider 创建 IdentityProvider 实例
func NewIdentityProvider(prefs repository.PreferenceRepository) *IdentityProvider {
	if prefs == nil {
		panic("PreferenceRepository cannot be nil for IdentityProvider")
	}
	return &IdentityProvider{prefs: prefs, newID: uuid.NewString}
}

// DeviceID 返回本设备的玩家 ID。首次调用时生成 UUID 并持久化，之后一直返回同一个值。
// 存储不可用时返回一个仅在本进程内有效的 ID 以及错误。
func (p *IdentityProvider) DeviceID(ctx context.Context) (string, error) {
	logCtx := logrus.WithField("key", repository.PrefKeyUserID)

	id, err := p.prefs.Get(ctx, repository.PrefKeyUserID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, repository.ErrPreferenceNotFound) {
		logCtx.WithError(err).Warn("Failed to read device id, using an ephemeral one")
		return p.newID(), fmt.Errorf("read device id: %w", err)
	}

	id = p.newID()
	if err := p.prefs.Set(ctx, repository.PrefKeyUserID, id); err != nil {
		logCtx.WithError(err).Warn("Failed to persist new device id")
		return id, fmt.Errorf("persist device id: %w", err)
	}
	logCtx.WithField("device_id", id).Info("Generated new device id")
	return id, nil
}

// LobbyDefaults 读取上次使用的名字和房间码，读取失败时返回空字符串。
func (p *IdentityProvider) LobbyDefaults(ctx context.Context) (name, room string) {
	name, err := p.prefs.Get(ctx, repository.PrefKeyName)
	if err != nil && !errors.Is(err, repository.ErrPreferenceNotFound) {
		logrus.WithError(err).Warn("Failed to read last player name")
	}
	room, err = p.prefs.Get(ctx, repository.PrefKeyRoom)
	if err != nil && !errors.Is(err, repository.ErrPreferenceNotFound) {
		logrus.WithError(err).Warn("Failed to read last room code")
	}
	return name, room
}

// RememberLobby 保存本次使用的名字和房间码。
func (p *IdentityProvider) RememberLobby(ctx context.Context, name, room string) error {
	if err := p.prefs.Set(ctx, repository.PrefKeyName, name); err != nil {
		return fmt.Errorf("persist player name: %w", err)
	}
	if err := p.prefs.Set(ctx, repository.PrefKeyRoom, room); err != nil {
		return fmt.Errorf("persist room code: %w", err)
	}
	return nil
}
