package domain

import "time"

// 日志条目类型，与服务端的 session / gameplay / hack 日志分类一致
const (
	JournalSession  = "session"
	JournalGameplay = "gameplay"
	JournalHack     = "hack"
)

// JournalEntry 是客户端记录的一条对局事件。
type JournalEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EntryKey  string    `gorm:"size:64;uniqueIndex;not null" json:"entry_key"` // 任务重试时去重
	DeviceID  string    `gorm:"size:64;index;not null" json:"device_id"`
	RoomCode  string    `gorm:"size:32;index;not null" json:"room"`
	Color     string    `gorm:"size:16" json:"color"`
	EventType string    `gorm:"size:32;not null" json:"event_type"`
	Action    string    `gorm:"size:64;not null" json:"action"`
	Data      string    `gorm:"type:text" json:"data"`
	Seq       uint64    `gorm:"not null" json:"seq"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
