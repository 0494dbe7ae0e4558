package tasks

import (
	"encoding/json"

	"geek-ludo/internal/domain"
)

// 定义任务类型常量
const (
	TypeJournalPersist = "journal:persist" // 对局日志持久化任务
)

// 队列名称，与 worker 的 Queues 配置对应
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// JournalPersistPayload 定义了日志持久化任务的数据结构
type JournalPersistPayload struct {
	Entry domain.JournalEntry `json:"entry"`
}

// NewJournalPersistTask 创建日志持久化任务的 payload
func NewJournalPersistTask(entry domain.JournalEntry) ([]byte, error) {
	payload := JournalPersistPayload{Entry: entry}
	return json.Marshal(payload)
}
