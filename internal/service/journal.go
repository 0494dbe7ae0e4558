package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/repository"
	"geek-ludo/internal/tasks"
)

// TaskEnqueuer 是 asynq.Client 中用到的部分。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
	enqueueTimeout      = 5 * time.Second
)

// JournalService 把对局日志投递到后台队列，由 worker 写入数据库。
type JournalService struct {
	enqueuer TaskEnqueuer
	repo     repository.JournalRepository
}

// NewJournalService 创建 JournalService 实例
func NewJournalService(enqueuer TaskEnqueuer, repo repository.JournalRepository) *JournalService {
	if enqueuer == nil {
		panic("TaskEnqueuer cannot be nil for JournalService")
	}
	if repo == nil {
		panic("JournalRepository cannot be nil for JournalService")
	}
	return &JournalService{enqueuer: enqueuer, repo: repo}
}

// Record 实现 Recorder。入队在独立的 goroutine 中进行，不阻塞事件循环。
func (s *JournalService) Record(entry domain.JournalEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()
		_ = s.Enqueue(ctx, entry)
	}()
}

// Enqueue 同步地把一条日志放入队列。EntryKey 为空时生成一个，worker 重试时据此去重。
func (s *JournalService) Enqueue(ctx context.Context, entry domain.JournalEntry) error {
	if entry.EntryKey == "" {
		entry.EntryKey = uuid.NewString()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room":      entry.RoomCode,
		"action":    entry.Action,
		"entry_key": entry.EntryKey,
	})

	payload, err := tasks.NewJournalPersistTask(entry)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build journal task payload")
		return err
	}
	task := asynq.NewTask(tasks.TypeJournalPersist, payload)
	info, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(tasks.QueueLow), asynq.MaxRetry(5))
	if err != nil {
		logCtx.WithError(err).Warn("Failed to enqueue journal entry")
		return err
	}
	logCtx.WithField("task_id", info.ID).Debug("Journal entry enqueued")
	return nil
}

// ListRoom 返回某个房间最近的日志。
func (s *JournalService) ListRoom(ctx context.Context, roomCode string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}
	entries, err := s.repo.ListByRoom(ctx, roomCode, limit)
	if err != nil {
		logrus.WithError(err).WithField("room", roomCode).Error("Failed to list journal entries")
		return nil, mapRepoError(err)
	}
	return entries, nil
}
