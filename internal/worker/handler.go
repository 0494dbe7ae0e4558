package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/repository"
	"geek-ludo/internal/tasks"
)

// JournalPersistenceHandler 处理对局日志持久化任务
type JournalPersistenceHandler struct {
	journalRepo repository.JournalRepository
}

// NewJournalPersistenceHandler 创建 Handler 实例
func NewJournalPersistenceHandler(journalRepo repository.JournalRepository) *JournalPersistenceHandler {
	if journalRepo == nil {
		panic("JournalRepository cannot be nil for JournalPersistenceHandler")
	}
	return &JournalPersistenceHandler{journalRepo: journalRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *JournalPersistenceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Debug("Processing journal persistence task...")

	var payload tasks.JournalPersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	entry := payload.Entry
	if entry.EntryKey == "" || entry.RoomCode == "" {
		logCtx.Error("Journal entry without key or room, skipping")
		return fmt.Errorf("invalid journal entry: %w", asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{"entry_key": entry.EntryKey, "room": entry.RoomCode})

	if err := h.journalRepo.Save(ctx, &entry); err != nil {
		// 之前的尝试已经写入成功 (例如确认前超时)，视为完成
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Info("Journal entry already persisted")
			return nil
		}
		logCtx.WithError(err).Error("Failed to save journal entry")
		return fmt.Errorf("failed to save journal entry %s: %w", entry.EntryKey, err)
	}

	logCtx.WithField("action", entry.Action).Info("Journal entry persisted")
	return nil
}
