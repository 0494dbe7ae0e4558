package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/repository"
	"geek-ludo/internal/tasks"
)

// JournalWorker 在后台消费对局日志任务并写入数据库
type JournalWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logrus.Entry
}

// NewJournalWorker 创建日志 worker，任务路由在创建时就注册好
func NewJournalWorker(redisOpt asynq.RedisClientOpt, journalRepo repository.JournalRepository, logger *logrus.Logger) *JournalWorker {
	logEntry := logger.WithField("component", "journal_worker")

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeJournalPersist, NewJournalPersistenceHandler(journalRepo))

	// 日志写入很轻，一个客户端的并发不需要很高；低优先级队列只在默认队列空闲时消费
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			tasks.QueueDefault: 3,
			tasks.QueueLow:     1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			fields := logrus.Fields{"task_type": task.Type(), "retried": retried, "max_retry": maxRetry}
			if retried >= maxRetry {
				logEntry.WithFields(fields).WithError(err).Error("Journal task exhausted its retries")
				return
			}
			logEntry.WithFields(fields).WithError(err).Warn("Journal task failed, will retry")
		}),
	})

	return &JournalWorker{server: server, mux: mux, log: logEntry}
}

// Start 启动消费者，不会阻塞
func (w *JournalWorker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start journal worker: %w", err)
	}
	w.log.Info("Journal worker started")
	return nil
}

// Shutdown 等待正在执行的任务结束后停止
func (w *JournalWorker) Shutdown() {
	w.server.Shutdown()
	w.log.Info("Journal worker stopped")
}
