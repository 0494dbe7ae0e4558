package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Engine 是客户端唯一的事件循环。所有状态变更都以闭包形式投递到这里，
// 按到达顺序在同一个 goroutine 中执行，因此 Machine 不需要加锁。
type Engine struct {
	events   chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewEngine 创建事件循环，buffer 是事件通道的缓冲区大小。
func NewEngine(buffer int) *Engine {
	if buffer <= 0 {
		buffer = 256
	}
	return &Engine{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Run 启动主循环，直到 ctx 取消或 Stop 被调用。应在单独的 goroutine 中运行。
func (e *Engine) Run(ctx context.Context) {
	log := logrus.WithField("component", "engine")
	log.Info("Engine is running...")
	for {
		select {
		case fn := <-e.events:
			e.exec(log, fn)
		case <-ctx.Done():
			log.Info("Engine context cancelled, shutting down...")
			e.Stop()
			return
		case <-e.done:
			log.Info("Engine is shutting down...")
			return
		}
	}
}

// exec 执行单个事件，panic 只记录日志，不终止循环。
func (e *Engine) exec(log *logrus.Entry, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic in engine event: %v", r)
		}
	}()
	fn()
}

// Post 把事件放入队列。与 hub 的 QueueMessage 不同，这里队列满时会阻塞而不是丢弃，
// 因为权威事件不能丢失也不能乱序。循环已停止时返回 false。
func (e *Engine) Post(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- fn:
		return true
	case <-e.done:
		return false
	}
}

// Do 在事件循环中执行 fn 并等待其返回结果。
func (e *Engine) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	ok := e.Post(func() { result <- fn() })
	if !ok {
		return ErrEngineStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineStopped
	}
}

// Stop 停止事件循环，可重复调用。
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
}
