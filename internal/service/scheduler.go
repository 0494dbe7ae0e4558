package service

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer 是一个可取消的定时回调。
type Timer interface {
	Stop() bool
}

// Scheduler 提供动画节拍。回调必须在事件循环中执行。
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// ClockScheduler 用 clock.Clock 计时，到期后把回调投递回事件循环。
type ClockScheduler struct {
	clock clock.Clock
	post  func(func()) bool
}

// NewClockScheduler 创建调度器。post 通常是 Engine.Post。
func NewClockScheduler(c clock.Clock, post func(func()) bool) *ClockScheduler {
	if c == nil {
		c = clock.New()
	}
	if post == nil {
		panic("post function cannot be nil for ClockScheduler")
	}
	return &ClockScheduler{clock: c, post: post}
}

func (s *ClockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return s.clock.AfterFunc(d, func() { s.post(fn) })
}

// Runner 在工作 goroutine 上执行阻塞调用 (如评测请求)，
// work 返回的续体会被投递回事件循环执行。
type Runner interface {
	Go(work func(ctx context.Context) func())
}

// LoopRunner 是 Runner 的默认实现。
type LoopRunner struct {
	ctx  context.Context
	post func(func()) bool
}

// NewLoopRunner 创建 Runner；ctx 取消后仍在进行的调用会收到取消信号。
func NewLoopRunner(ctx context.Context, post func(func()) bool) *LoopRunner {
	if post == nil {
		panic("post function cannot be nil for LoopRunner")
	}
	return &LoopRunner{ctx: ctx, post: post}
}

func (r *LoopRunner) Go(work func(ctx context.Context) func()) {
	go func() {
		if cont := work(r.ctx); cont != nil {
			r.post(cont)
		}
	}()
}
