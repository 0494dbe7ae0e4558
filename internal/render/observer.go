package render

import (
	"sync"

	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
)

// Sink 接收投影后的视图，例如推送到本地界面。
type Sink interface {
	Render(v View)
}

// SinkFunc 把普通函数适配为 Sink
type SinkFunc func(v View)

func (f SinkFunc) Render(v View) { f(v) }

// Observer 把每个快照投影一次，再分发给所有 Sink，并保留最新的视图。
// Publish 在事件循环中调用；Latest 可以被任意 goroutine 调用。
type Observer struct {
	mu     sync.RWMutex
	latest View
	sinks  []Sink
}

// NewObserver 创建 Observer，初始视图是空大厅。
func NewObserver(sinks ...Sink) *Observer {
	return &Observer{latest: Project(domain.Snapshot{Phase: domain.PhaseLobby}), sinks: sinks}
}

// AddSink 注册一个 Sink。应在事件循环启动前调用。
func (o *Observer) AddSink(s Sink) {
	o.mu.Lock()
	o.sinks = append(o.sinks, s)
	o.mu.Unlock()
}

// Publish 实现 service.Observer
func (o *Observer) Publish(snap domain.Snapshot) {
	v := Project(snap)
	o.mu.Lock()
	o.latest = v
	sinks := append([]Sink(nil), o.sinks...)
	o.mu.Unlock()

	for _, s := range sinks {
		s.Render(v)
	}
}

// Latest 返回最近一次投影的视图。
func (o *Observer) Latest() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest
}

// LogSink 在 Debug 级别记录每次视图变化。
func LogSink(log *logrus.Logger) Sink {
	return SinkFunc(func(v View) {
		log.WithFields(logrus.Fields{
			"version":   v.Version,
			"screen":    v.Screen,
			"phase":     v.Phase,
			"banner":    v.Banner.Text,
			"animating": v.Animating,
		}).Debug("View updated")
	})
}
