package repository

import "context"

// 客户端本地持久化的键
const (
	PrefKeyUserID = "geek_ludo_uid"
	PrefKeyName   = "geek_ludo_name"
	PrefKeyRoom   = "geek_ludo_room"
)

// PreferenceRepository 是一个不透明的键值存储，保存设备 ID 和上次使用的名字/房间。
type PreferenceRepository interface {
	// Get 读取键值；不存在时返回 ErrPreferenceNotFound。
	Get(ctx context.Context, key string) (string, error)
	// Set 写入键值，覆盖旧值。
	Set(ctx context.Context, key, value string) error
}
