package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/dto"
	"geek-ludo/internal/repository/mocks"
	"geek-ludo/internal/service"
)

// fakeTransport 记录所有发出的意图
type fakeTransport struct {
	mu         sync.Mutex
	sent       []dto.Intent
	err        error
	reconnects int
}

func (f *fakeTransport) Send(intent dto.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, intent)
	return nil
}

func (f *fakeTransport) Reconnect() {
	f.mu.Lock()
	f.reconnects++
	f.mu.Unlock()
}

func (f *fakeTransport) Sent() []dto.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.Intent(nil), f.sent...)
}

func (f *fakeTransport) Last() dto.Intent {
	sent := f.Sent()
	if len(sent) == 0 {
		return dto.Intent{}
	}
	return sent[len(sent)-1]
}

func (f *fakeTransport) Reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

// deferredRunner 把评测调用攒起来，由测试决定何时完成
type deferredRunner struct {
	pending []func(ctx context.Context) func()
}

func (r *deferredRunner) Go(work func(ctx context.Context) func()) {
	r.pending = append(r.pending, work)
}

// Flush 依次执行所有挂起的调用及其续体
func (r *deferredRunner) Flush() {
	for len(r.pending) > 0 {
		work := r.pending[0]
		r.pending = r.pending[1:]
		if cont := work(context.Background()); cont != nil {
			cont()
		}
	}
}

// manualScheduler 由测试手动推进节拍
type manualScheduler struct {
	timers []*manualTimer
	delays []time.Duration
}

type manualTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) service.Timer {
	t := &manualTimer{fn: fn}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// Tick 触发当前所有到期的回调一次，返回触发的数量
func (s *manualScheduler) Tick() int {
	due := s.timers
	s.timers = nil
	n := 0
	for _, t := range due {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		n++
		t.fn()
	}
	return n
}

// RunAll 一直推进直到没有挂起的回调
func (s *manualScheduler) RunAll() int {
	total := 0
	for {
		n := s.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// captureObserver 保存最近一次快照
type captureObserver struct {
	last  domain.Snapshot
	count int
}

func (o *captureObserver) Publish(s domain.Snapshot) {
	o.last = s
	o.count++
}

// captureRecorder 保存所有日志条目
type captureRecorder struct {
	entries []domain.JournalEntry
}

func (r *captureRecorder) Record(e domain.JournalEntry) { r.entries = append(r.entries, e) }

func (r *captureRecorder) Actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type harness struct {
	machine   *service.Machine
	transport *fakeTransport
	judge     *mocks.JudgeGateway
	runner    *deferredRunner
	sched     *manualScheduler
	observer  *captureObserver
	recorder  *captureRecorder
	scoring   *service.Scoring
}

const testUserID = "uid-local"

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: &fakeTransport{},
		judge:     mocks.NewJudgeGateway(t),
		runner:    &deferredRunner{},
		sched:     &manualScheduler{},
		observer:  &captureObserver{},
		recorder:  &captureRecorder{},
		scoring:   service.NewScoring(domain.ScoringFixed, nil),
	}
	h.machine = service.NewMachine(service.MachineDeps{
		Transport: h.transport,
		Judge:     h.judge,
		Runner:    h.runner,
		Scheduler: h.sched,
		Scoring:   h.scoring,
		Recorder:  h.recorder,
		Observer:  h.observer,
		Clock:     clock.NewMock(),
		UserID:    testUserID,
	})
	return h
}

// feed 以服务端帧的形式投递一个事件
func (h *harness) feed(t *testing.T, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(dto.Envelope{Event: event, Data: payload})
	require.NoError(t, err)
	h.machine.HandleFrame(frame)
}

func (h *harness) snap() domain.Snapshot { return h.machine.Snapshot() }

// joinRoom 完成加入流程 (join_game → join_success)，对局未开始
func (h *harness) joinRoom(t *testing.T, color domain.Color) {
	t.Helper()
	require.NoError(t, h.machine.Join("abc", "ann", string(color)))
	h.feed(t, dto.EventJoinSuccess, map[string]interface{}{"room": "ABC", "color": color, "started": false})
}

// startMatch 加入并开始对局，当前行棋颜色为 active
func (h *harness) startMatch(t *testing.T, me, active domain.Color) {
	t.Helper()
	h.joinRoom(t, me)
	h.feed(t, dto.EventTurnChange, map[string]interface{}{"active_color": active})
	h.feed(t, dto.EventGameStarted, map[string]interface{}{})
	require.Equal(t, domain.PhaseTurnActive, h.snap().Phase)
	h.transport.Reset()
}

// openChallenge 在自己的回合打开一道题
func (h *harness) openChallenge(t *testing.T, q *domain.Challenge) {
	t.Helper()
	h.judge.On("FetchChallenge", anyCtx).Return(q, nil).Once()
	require.NoError(t, h.machine.OpenChallenge())
	h.runner.Flush()
	require.Equal(t, domain.PhaseChallengeOpen, h.snap().Phase)
}

func intentPayload[T any](t *testing.T, intent dto.Intent) T {
	t.Helper()
	p, ok := intent.Payload.(T)
	require.True(t, ok, "payload type %T", intent.Payload)
	return p
}

var (
	anyCtx     = mock.Anything
	errNetwork = errors.New("connection refused")
)
