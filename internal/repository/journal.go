package repository

import (
	"context"

	"geek-ludo/internal/domain"
)

// JournalRepository 定义对局日志的存储和查询。
type JournalRepository interface {
	// Save 保存一条日志。EntryKey 重复时返回 ErrDuplicateEntry。
	Save(ctx context.Context, entry *domain.JournalEntry) error

	// ListByRoom 按时间倒序返回某个房间最近的日志，limit <= 0 时使用默认值。
	ListByRoom(ctx context.Context, roomCode string, limit int) ([]domain.JournalEntry, error)
}
