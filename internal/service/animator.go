package service

import (
	"time"

	"geek-ludo/internal/domain"
)

// DefaultStepDelay 是两个单位步之间的间隔。
const DefaultStepDelay = 300 * time.Millisecond

// StepFunc 在每个单位步应用到会话后调用，用于重新渲染。
type StepFunc func(color domain.Color, step int)

// DoneFunc 在动画结束后调用一次。moved 表示至少移动了一格。
type DoneFunc func(color domain.Color, step int, moved bool)

// Animator 把一次带符号的位移拆成逐格移动，并按固定节拍回放。
// 只能在事件循环中调用。
type Animator struct {
	sched   Scheduler
	delay   time.Duration
	running map[*animation]struct{}
}

type animation struct {
	session   *domain.Session
	color     domain.Color
	dir       int
	remaining int
	moved     bool
	timer     Timer
	stopped   bool
	onStep    StepFunc
	onDone    DoneFunc
}

// NewAnimator 创建动画器；delay <= 0 时使用 DefaultStepDelay。
func NewAnimator(sched Scheduler, delay time.Duration) *Animator {
	if sched == nil {
		panic("Scheduler cannot be nil for Animator")
	}
	if delay <= 0 {
		delay = DefaultStepDelay
	}
	return &Animator{sched: sched, delay: delay, running: make(map[*animation]struct{})}
}

// Animate 回放 total 步。第一步立即执行，之后每步间隔 delay。
// 某一步因到达边界无法移动时，动画结束并丢弃剩余步数。total 为 0 时什么也不做。
// 同一颜色的并发动画不去重，各自独立推进。
func (a *Animator) Animate(s *domain.Session, color domain.Color, total int, onStep StepFunc, onDone DoneFunc) {
	if total == 0 || s == nil {
		return
	}
	an := &animation{
		session:   s,
		color:     color,
		dir:       1,
		remaining: total,
		onStep:    onStep,
		onDone:    onDone,
	}
	if total < 0 {
		an.dir = -1
		an.remaining = -total
	}
	a.running[an] = struct{}{}
	a.step(an)
}

func (a *Animator) step(an *animation) {
	if an.stopped {
		return
	}
	pos, moved := an.session.Step(an.color, an.dir)
	if !moved {
		a.finish(an, pos)
		return
	}
	an.moved = true
	an.remaining--
	if an.onStep != nil {
		an.onStep(an.color, pos)
	}
	if an.remaining == 0 {
		a.finish(an, pos)
		return
	}
	an.timer = a.sched.AfterFunc(a.delay, func() { a.step(an) })
}

func (a *Animator) finish(an *animation, pos int) {
	delete(a.running, an)
	if an.onDone != nil {
		an.onDone(an.color, pos, an.moved)
	}
}

// Active 表示是否有动画正在进行。
func (a *Animator) Active() bool { return len(a.running) > 0 }

// StopAll 取消所有进行中的动画，不触发 DoneFunc。
func (a *Animator) StopAll() {
	for an := range a.running {
		an.stopped = true
		if an.timer != nil {
			an.timer.Stop()
		}
		delete(a.running, an)
	}
}
