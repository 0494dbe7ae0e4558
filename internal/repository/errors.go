package repository

import (
	"errors"
	"fmt"
)

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示尝试插入的数据违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrUnavailable 表示远端服务不可达 (网络错误、非预期状态码、响应无法解析)
	ErrUnavailable = errors.New("repository: remote service unavailable")
)

// 特定资源的错误
var (
	ErrPreferenceNotFound = ErrNotFound
	ErrJournalNotFound    = ErrNotFound
)

// JudgeError 表示题库服务返回了 {"error": "..."}。
// 消息原样展示给玩家，不会写入任何状态。
type JudgeError struct {
	Message string
}

func (e *JudgeError) Error() string {
	return fmt.Sprintf("judge: %s", e.Message)
}
