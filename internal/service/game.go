package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/dto"
)

// GameService 是对外的门面：把用户意图和服务端事件投递到事件循环，
// 并在需要时等待结果。可以被多个 goroutine 并发调用。
type GameService struct {
	engine   *Engine
	machine  *Machine
	identity *IdentityProvider
	journal  *JournalService
}

// NewGameService 创建 GameService 实例。journal 可以为 nil (未启用对局日志)。
func NewGameService(engine *Engine, machine *Machine, identity *IdentityProvider, journal *JournalService) *GameService {
	if engine == nil {
		panic("Engine cannot be nil for GameService")
	}
	if machine == nil {
		panic("Machine cannot be nil for GameService")
	}
	if identity == nil {
		panic("IdentityProvider cannot be nil for GameService")
	}
	return &GameService{engine: engine, machine: machine, identity: identity, journal: journal}
}

// LoadLobbyDefaults 读取上次的名字和房间码并填入大厅。
func (g *GameService) LoadLobbyDefaults(ctx context.Context) error {
	name, room := g.identity.LobbyDefaults(ctx)
	return g.engine.Do(ctx, func() error {
		g.machine.SetLobbyDefaults(name, room)
		return nil
	})
}

// Join 保存名字和房间码后发送加入请求。
func (g *GameService) Join(ctx context.Context, room, name, color string) error {
	if req, err := NormalizeJoin(room, name, color); err == nil {
		if err := g.identity.RememberLobby(ctx, req.Name, req.Room); err != nil {
			logrus.WithError(err).Warn("Failed to remember lobby form")
		}
	}
	return g.engine.Do(ctx, func() error { return g.machine.Join(room, name, color) })
}

func (g *GameService) StartGame(ctx context.Context) error {
	return g.engine.Do(ctx, g.machine.StartGame)
}

func (g *GameService) OpenChallenge(ctx context.Context) error {
	return g.engine.Do(ctx, g.machine.OpenChallenge)
}

func (g *GameService) Submit(ctx context.Context, code, language string) error {
	return g.engine.Do(ctx, func() error { return g.machine.Submit(code, language) })
}

func (g *GameService) Skip(ctx context.Context) error {
	return g.engine.Do(ctx, g.machine.Skip)
}

func (g *GameService) CastVerdict(ctx context.Context, attempt domain.HackAttempt) error {
	return g.engine.Do(ctx, func() error { return g.machine.CastVerdict(attempt) })
}

// SetScoringMode 解析并切换奖励模式。
func (g *GameService) SetScoringMode(ctx context.Context, mode string) error {
	m, err := ParseScoringMode(mode)
	if err != nil {
		return err
	}
	return g.engine.Do(ctx, func() error { return g.machine.SetScoringMode(m) })
}

// Exit 由界面在玩家确认后调用。
func (g *GameService) Exit(ctx context.Context) error {
	return g.engine.Do(ctx, g.machine.Exit)
}

// Snapshot 返回当前状态。
func (g *GameService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := g.engine.Do(ctx, func() error {
		snap = g.machine.Snapshot()
		return nil
	})
	return snap, err
}

// Journal 返回当前房间最近的对局日志。
func (g *GameService) Journal(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if g.journal == nil {
		return []domain.JournalEntry{}, nil
	}
	snap, err := g.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Session == nil {
		return nil, ErrNotJoined
	}
	return g.journal.ListRoom(ctx, snap.Session.RoomCode, limit)
}

// --- 传输层回调，由读泵 goroutine 调用，按到达顺序入队 ---

// HandleFrame 把服务端帧投递到事件循环。
func (g *GameService) HandleFrame(raw []byte) {
	frame := append([]byte(nil), raw...)
	g.engine.Post(func() { g.machine.HandleFrame(frame) })
}

func (g *GameService) Connected() {
	g.engine.Post(g.machine.OnConnected)
}

func (g *GameService) Disconnected() {
	g.engine.Post(g.machine.OnDisconnected)
}

// Dispatch 处理本地界面通过 WebSocket 发来的意图帧 {"event": ..., "data": ...}。
// 被拒绝的意图会作为提示出现在下一次快照中。
func (g *GameService) Dispatch(ctx context.Context, raw []byte) error {
	env, err := dto.DecodeEnvelope(raw)
	if err != nil {
		return err
	}
	err = g.dispatch(ctx, env)
	if err != nil && !errors.Is(err, ErrEngineStopped) && !errors.Is(err, context.Canceled) {
		reason := err
		g.engine.Post(func() { g.machine.RejectIntent(env.Event, reason) })
	}
	return err
}

func (g *GameService) dispatch(ctx context.Context, env dto.Envelope) error {
	switch env.Event {
	case dto.UIJoin:
		var req dto.JoinRequest
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		return g.Join(ctx, req.Room, req.Name, req.Color)
	case dto.UIStart:
		return g.StartGame(ctx)
	case dto.UIOpenChallenge:
		return g.OpenChallenge(ctx)
	case dto.UISubmit:
		var req dto.SubmitRequest
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		return g.Submit(ctx, req.Code, req.Language)
	case dto.UISkip:
		return g.Skip(ctx)
	case dto.UIVerdict:
		var req dto.VerdictRequest
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		return g.CastVerdict(ctx, req.Attempt())
	case dto.UIScoring:
		var req dto.ScoringRequest
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		return g.SetScoringMode(ctx, req.Mode)
	case dto.UIExit:
		return g.Exit(ctx)
	}
	return fmt.Errorf("%q: %w", env.Event, ErrUnknownIntent)
}
