package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/dto"
	"geek-ludo/internal/repository"
)

// Transport 是到权威服务端的连接。Send 只写入发送队列，不等待网络。
type Transport interface {
	Send(intent dto.Intent) error
	// Reconnect 主动断开并重新拨号，服务端会看到一次断线。
	Reconnect()
}

// Observer 在每次状态变化后收到新的快照。
type Observer interface {
	Publish(snap domain.Snapshot)
}

// Recorder 记录对局日志，实现不得阻塞事件循环。
type Recorder interface {
	Record(entry domain.JournalEntry)
}

// maxNotices 是快照中保留的最近提示条数。
const maxNotices = 20

// 提示文本
const (
	noticeGameStarted    = "🚀 Game started!"
	noticeDiceRolled     = "🎲 DICE ROLLED: %d"
	noticeAwaitReview    = "⏳ Waiting for other players to verify your code..."
	noticeWrongAnswer    = "❌ Failed! Penalty: -3 Steps."
	noticeSkipped        = "⚠️ Mission Aborted! Penalty: -2 Steps."
	noticeHackEnd        = "🏁 Hack Phase Complete. Turn Switching."
	noticeWin            = "🎉 YOU WIN! 🎉"
	noticeConnLost       = "Connection lost. Reconnecting..."
	noticeSeatResumed    = "Reconnected. Resuming seat..."
	noticeJudgeFault     = "Judge is unavailable right now, no penalty applied. Try again."
	lobbyInvalidJoinMsg  = "Enter room code and name."
	lobbyInvalidColorMsg = "Pick a seat color."
)

// MachineDeps 汇总 Machine 的依赖。Recorder、Observer、Clock 可选。
type MachineDeps struct {
	Transport Transport
	Judge     repository.JudgeGateway
	Runner    Runner
	Scheduler Scheduler
	Scoring   *Scoring
	Recorder  Recorder
	Observer  Observer
	Clock     clock.Clock
	StepDelay time.Duration
	UserID    string
}

// Machine 是客户端的回合/阶段状态机，持有房间会话。
// 所有方法都必须在事件循环 (Engine) 中调用。
type Machine struct {
	transport Transport
	coord     *Coordinator
	animator  *Animator
	scoring   *Scoring
	recorder  Recorder
	observer  Observer
	clock     clock.Clock
	userID    string

	phase       domain.Phase
	hackRole    domain.HackRole
	roundOpen   bool // 已收到 hack_phase_start，尚未收到 hack_phase_end
	session     *domain.Session
	pendingJoin *dto.JoinGame
	connected   bool

	lobbyName   string
	lobbyRoom   string
	lobbyStatus string

	won        bool
	notices    []domain.Notice
	noticeSeq  uint64
	journalSeq uint64
	version    uint64
}

// NewMachine 创建状态机，初始阶段为 Lobby。
func NewMachine(deps MachineDeps) *Machine {
	if deps.Transport == nil {
		panic("Transport cannot be nil for Machine")
	}
	if deps.Judge == nil {
		panic("JudgeGateway cannot be nil for Machine")
	}
	if deps.Runner == nil {
		panic("Runner cannot be nil for Machine")
	}
	if deps.Scheduler == nil {
		panic("Scheduler cannot be nil for Machine")
	}
	if deps.Scoring == nil {
		deps.Scoring = NewScoring(domain.ScoringFixed, nil)
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Machine{
		transport: deps.Transport,
		coord:     NewCoordinator(deps.Judge, deps.Runner),
		animator:  NewAnimator(deps.Scheduler, deps.StepDelay),
		scoring:   deps.Scoring,
		recorder:  deps.Recorder,
		observer:  deps.Observer,
		clock:     deps.Clock,
		userID:    deps.UserID,
		phase:     domain.PhaseLobby,
	}
}

// NormalizeJoin 规范化加入参数：房间码去空白并转大写，名字去空白，颜色转小写。
func NormalizeJoin(room, name, color string) (dto.JoinGame, error) {
	room = strings.ToUpper(strings.TrimSpace(room))
	name = strings.TrimSpace(name)
	if room == "" || name == "" {
		return dto.JoinGame{}, ErrInvalidJoin
	}
	c, err := domain.ParseColor(color)
	if err != nil {
		return dto.JoinGame{}, fmt.Errorf("%v: %w", err, ErrInvalidColor)
	}
	return dto.JoinGame{Room: room, Color: c, Name: name}, nil
}

// SetLobbyDefaults 设置大厅表单的默认名字和房间码。
func (m *Machine) SetLobbyDefaults(name, room string) {
	defer m.commit()
	m.lobbyName = name
	m.lobbyRoom = room
}

// --- 用户意图 ---

// Join 发送加入请求。会话在 join_success 到来前不做任何乐观修改。
func (m *Machine) Join(room, name, color string) error {
	defer m.commit()
	if m.session != nil {
		return ErrAlreadyJoined
	}
	req, err := NormalizeJoin(room, name, color)
	if err != nil {
		m.lobbyStatus = lobbyInvalidJoinMsg
		if errors.Is(err, ErrInvalidColor) {
			m.lobbyStatus = lobbyInvalidColorMsg
		}
		return err
	}
	m.lobbyName = req.Name
	m.lobbyRoom = req.Room
	req.UserID = m.userID
	if err := m.send(dto.Intent{Event: dto.IntentJoinGame, Payload: req}); err != nil {
		m.lobbyStatus = networkErrorText
		return err
	}
	m.pendingJoin = &req
	m.lobbyStatus = ""
	return nil
}

// StartGame 请求开始对局。
func (m *Machine) StartGame() error {
	defer m.commit()
	if m.session == nil {
		return ErrNotJoined
	}
	if m.session.Started {
		return ErrAlreadyStarted
	}
	return m.send(dto.Intent{Event: dto.IntentStartGame, Payload: dto.StartGame{Room: m.session.RoomCode}})
}

// OpenChallenge 请求一道题目。只在轮到自己且尚未提交时有效，否则不发起任何网络请求。
func (m *Machine) OpenChallenge() error {
	defer m.commit()
	if err := m.requireMyTurn(); err != nil {
		return err
	}
	if m.phase != domain.PhaseTurnActive && m.phase != domain.PhaseChallengeOpen {
		return ErrInvalidPhase
	}
	return m.coord.Fetch(m.onChallengeFetched)
}

// Submit 把代码交给评测服务做预测试。
func (m *Machine) Submit(code, language string) error {
	defer m.commit()
	if err := m.requireMyTurn(); err != nil {
		return err
	}
	if m.phase != domain.PhaseChallengeOpen {
		return ErrInvalidPhase
	}
	if language == "" {
		language = defaultLanguage
	}
	return m.coord.Submit(code, language, func(res *domain.JudgeResult, err error) {
		m.onJudged(code, language, res, err)
	})
}

// Skip 放弃当前题目，接受跳过惩罚。
func (m *Machine) Skip() error {
	defer m.commit()
	if err := m.requireMyTurn(); err != nil {
		return err
	}
	if m.phase != domain.PhaseChallengeOpen {
		return ErrInvalidPhase
	}
	if err := m.sendMove(domain.SkipPenalty); err != nil {
		m.coord.SetError(networkErrorText)
		return err
	}
	m.coord.CloseChallenge()
	m.phase = domain.PhaseTurnIdle
	m.notify(domain.NoticeWarning, noticeSkipped)
	m.record(domain.JournalGameplay, "skip", map[string]interface{}{"steps": domain.SkipPenalty})
	return nil
}

// CastVerdict 发送本轮的评审投票。每轮只能投一次，发送后面板立即隐藏。
func (m *Machine) CastVerdict(h domain.HackAttempt) error {
	defer m.commit()
	if m.session == nil {
		return ErrNotJoined
	}
	if m.phase != domain.PhaseHackWindow || m.hackRole != domain.HackAttacking {
		return ErrNoReview
	}
	if err := m.coord.PrepareVerdict(h); err != nil {
		return err
	}
	intent := dto.Intent{Event: dto.IntentSubmitHackAttempt, Payload: dto.NewSubmitHackAttempt(m.session.RoomCode, h)}
	if err := m.send(intent); err != nil {
		m.coord.VerdictFailed()
		return err
	}
	m.coord.MarkVoted()
	m.record(domain.JournalHack, "verdict", map[string]interface{}{"verdict": string(h.Action)})
	return nil
}

// SetScoringMode 切换奖励模式，下次提交成功时生效。
func (m *Machine) SetScoringMode(mode domain.ScoringMode) error {
	defer m.commit()
	if mode != domain.ScoringFixed && mode != domain.ScoringLuck {
		return ErrInvalidScoringMode
	}
	m.scoring.SetMode(mode)
	return nil
}

// Exit 离开房间：清空会话，回到大厅，并断开重连。
func (m *Machine) Exit() error {
	defer m.commit()
	if m.session != nil {
		m.record(domain.JournalSession, "leave", nil)
		m.logCtx().Info("Leaving room")
	}
	m.animator.StopAll()
	m.coord.Reset()
	m.session = nil
	m.pendingJoin = nil
	m.phase = domain.PhaseLobby
	m.hackRole = domain.HackNone
	m.roundOpen = false
	m.won = false
	m.lobbyStatus = ""
	m.transport.Reconnect()
	return nil
}

// RejectIntent 把被拒绝的界面意图显示为一条错误提示。
func (m *Machine) RejectIntent(intent string, err error) {
	defer m.commit()
	m.logCtx().WithError(err).WithField("intent", intent).Debug("Intent rejected")
	m.notify(domain.NoticeError, err.Error())
}

// --- 连接状态 ---

// OnConnected 在传输层 (重新) 连接成功后调用。持有会话时自动重新加入原座位。
func (m *Machine) OnConnected() {
	defer m.commit()
	m.connected = true
	if m.session == nil {
		return
	}
	req := dto.JoinGame{
		Room:   m.session.RoomCode,
		Color:  m.session.MyColor,
		Name:   m.session.PlayerName,
		UserID: m.userID,
	}
	if err := m.send(dto.Intent{Event: dto.IntentJoinGame, Payload: req}); err != nil {
		m.logCtx().WithError(err).Warn("Failed to re-send join after reconnect")
		return
	}
	m.notify(domain.NoticeInfo, noticeSeatResumed)
}

// OnDisconnected 在传输层断开时调用。
func (m *Machine) OnDisconnected() {
	defer m.commit()
	m.connected = false
	if m.session != nil {
		m.notify(domain.NoticeWarning, noticeConnLost)
	}
}

// --- 服务端事件 ---

// HandleFrame 解析并处理一个入站文本帧。无法解析的帧只记录日志。
func (m *Machine) HandleFrame(raw []byte) {
	env, err := dto.DecodeEnvelope(raw)
	if err != nil {
		logrus.WithError(err).Warn("Dropping malformed frame from server")
		return
	}
	m.HandleEvent(env)
}

// HandleEvent 按事件名分派入站事件。
func (m *Machine) HandleEvent(env dto.Envelope) {
	defer m.commit()
	logCtx := m.logCtx().WithField("event", env.Event)
	logCtx.Debug("Inbound event")

	var err error
	switch env.Event {
	case dto.EventJoinSuccess:
		err = decodeInto(env, m.onJoinSuccess)
	case dto.EventJoinError:
		err = decodeInto(env, m.onJoinError)
	case dto.EventUpdatePlayerList:
		err = decodeInto(env, m.onPlayerList)
	case dto.EventSyncState:
		err = decodeInto(env, m.onSyncState)
	case dto.EventTurnChange:
		err = decodeInto(env, m.onTurnChange)
	case dto.EventGameStarted:
		err = decodeInto(env, m.onGameStarted)
	case dto.EventAnimateMove:
		err = decodeInto(env, m.onAnimateMove)
	case dto.EventCheckpointAlert:
		err = decodeInto(env, func(p dto.CheckpointAlert) { m.notify(domain.NoticeWarning, p.Message) })
	case dto.EventHackPhaseStart:
		err = decodeInto(env, m.onHackPhaseStart)
	case dto.EventHackLog:
		err = decodeInto(env, m.onHackLog)
	case dto.EventHackPhaseEnd:
		err = decodeInto(env, func(dto.HackPhaseEnd) { m.onHackPhaseEnd() })
	default:
		logCtx.Debug("Ignoring unknown event")
	}
	if err != nil {
		logCtx.WithError(err).Warn("Failed to decode event payload")
	}
}

func decodeInto[T any](env dto.Envelope, apply func(T)) error {
	var p T
	if err := env.DecodeData(&p); err != nil {
		return err
	}
	apply(p)
	return nil
}

func (m *Machine) onJoinSuccess(p dto.JoinSuccess) {
	color, err := domain.ParseColor(string(p.Color))
	if err != nil {
		m.logCtx().WithError(err).Warn("join_success carries an unknown color")
		return
	}
	room := strings.ToUpper(strings.TrimSpace(p.Room))

	// 重连后服务端按名字和颜色恢复了原座位，保留本地进度
	if m.session != nil && m.session.RoomCode == room && m.session.MyColor == color {
		m.session.Started = m.session.Started || p.Started
		m.lobbyStatus = ""
		m.logCtx().Info("Seat resumed after reconnect")
		m.record(domain.JournalSession, "reconnect", nil)
		return
	}

	name := m.lobbyName
	if m.pendingJoin != nil {
		name = m.pendingJoin.Name
	}
	m.animator.StopAll()
	m.coord.Reset()
	m.session = domain.NewSession(room, color, name, m.userID, p.Started)
	m.pendingJoin = nil
	m.hackRole = domain.HackNone
	m.roundOpen = false
	m.won = false
	m.lobbyStatus = ""
	if p.Started {
		m.phase = domain.PhaseTurnIdle
	} else {
		m.phase = domain.PhaseWaitingForStart
	}
	m.logCtx().WithField("started", p.Started).Info("Joined room")
	m.record(domain.JournalSession, "join", map[string]interface{}{"started": p.Started})
}

func (m *Machine) onJoinError(p dto.JoinError) {
	m.lobbyStatus = p.Message
	m.pendingJoin = nil
	m.notify(domain.NoticeError, p.Message)
	m.logCtx().WithField("reason", p.Message).Warn("Join rejected by server")
}

func (m *Machine) onPlayerList(p dto.UpdatePlayerList) {
	if m.session == nil {
		return
	}
	roster := p.Roster()
	for i := range roster {
		if roster[i].Color == m.session.MyColor && roster[i].Name == m.session.PlayerName {
			roster[i].ID = m.userID
		}
	}
	m.session.ReplaceRoster(roster)
}

func (m *Machine) onSyncState(p dto.SyncState) {
	if m.session == nil {
		return
	}
	m.session.ReplacePositions(p.Positions)
}

func (m *Machine) onTurnChange(p dto.TurnChange) {
	if m.session == nil {
		return
	}
	color, err := domain.ParseColor(string(p.ActiveColor))
	if err != nil {
		m.logCtx().WithError(err).Warn("turn_change carries an unknown color")
		return
	}
	same := color == m.session.ActiveColor
	m.session.SetActive(color)

	// 开局前的回合通告同样生效：服务端可能在 game_started 之前就指定首个行棋方
	if same && m.turnInProgress() {
		m.logCtx().Debug("Repeated turn announcement, keeping phase")
		return
	}
	m.coord.CloseChallenge()
	m.coord.CloseReview()
	m.hackRole = domain.HackNone
	m.roundOpen = false
	m.phase = domain.PhaseTurnActive
}

// turnInProgress 表示同一颜色的重复回合通告不应打断当前阶段。
func (m *Machine) turnInProgress() bool {
	switch m.phase {
	case domain.PhaseTurnActive, domain.PhaseChallengeOpen, domain.PhaseSubmissionPending:
		return true
	case domain.PhaseHackWindow:
		return m.roundOpen
	}
	return false
}

func (m *Machine) onGameStarted(p dto.GameStarted) {
	if m.session == nil {
		return
	}
	wasStarted := m.session.Started
	m.session.Started = true
	msg := noticeGameStarted
	if p.Message != "" {
		msg = "🚀 " + p.Message
	}
	m.notify(domain.NoticeInfo, msg)
	if m.phase == domain.PhaseWaitingForStart {
		if m.session.ActiveColor != "" {
			m.phase = domain.PhaseTurnActive
		} else {
			m.phase = domain.PhaseTurnIdle
		}
	}
	if !wasStarted {
		m.record(domain.JournalSession, "game_start", nil)
	}
}

func (m *Machine) onAnimateMove(p dto.AnimateMove) {
	if m.session == nil {
		return
	}
	color, err := domain.ParseColor(string(p.Color))
	if err != nil {
		m.logCtx().WithError(err).Warn("animate_move carries an unknown color")
		return
	}
	m.animator.Animate(m.session, color, p.TotalStepsMoved, m.onAnimationStep, m.onAnimationDone)
}

func (m *Machine) onAnimationStep(domain.Color, int) {
	m.commit()
}

// onAnimationDone 在整段位移结束后检查胜利。已在终点的棋子收到前进位移时同样算作到达，won 保证只通知一次。
func (m *Machine) onAnimationDone(color domain.Color, step int, _ bool) {
	defer m.commit()
	if m.session == nil || m.won || color != m.session.MyColor {
		return
	}
	if step >= domain.PathLen(color)-1 {
		m.won = true
		m.notify(domain.NoticeWin, noticeWin)
		m.record(domain.JournalGameplay, "win", nil)
	}
}

func (m *Machine) onHackPhaseStart(p dto.HackPhaseStart) {
	if m.session == nil {
		return
	}
	m.coord.CloseChallenge()
	m.phase = domain.PhaseHackWindow
	m.roundOpen = true
	if p.VictimColor == m.session.MyColor {
		m.hackRole = domain.HackDefending
		m.coord.ResetRound()
		return
	}
	m.hackRole = domain.HackAttacking
	m.coord.OpenReview(p.Review())
}

func (m *Machine) onHackLog(p dto.HackLog) {
	m.coord.HackLog(p.Message)
	if p.Message != "" {
		m.notify(domain.NoticeHack, p.Message)
	}
}

func (m *Machine) onHackPhaseEnd() {
	if m.session == nil {
		return
	}
	m.coord.CloseReview()
	m.roundOpen = false
	m.hackRole = domain.HackNone
	m.phase = domain.PhaseResolutionPending
	m.notify(domain.NoticeInfo, noticeHackEnd)
}

// --- 评测回调 ---

func (m *Machine) onChallengeFetched(q *domain.Challenge, err error) {
	defer m.commit()
	if err != nil {
		m.logCtx().WithError(err).Warn("Challenge fetch failed")
		return
	}
	m.phase = domain.PhaseChallengeOpen
	m.logCtx().WithField("challenge_id", q.ID).Info("Challenge opened")
}

func (m *Machine) onJudged(code, language string, res *domain.JudgeResult, err error) {
	defer m.commit()
	logCtx := m.logCtx()
	if err != nil {
		logCtx.WithError(err).Warn("Submission did not reach the judge")
		return
	}
	if res.Success {
		m.onPretestPassed(code, language)
		return
	}
	if res.SystemFault() {
		logCtx.WithField("output", res.Output).Warn("Judge reported a system fault")
		m.notify(domain.NoticeWarning, noticeJudgeFault)
		return
	}

	if err := m.sendMove(domain.WrongAnswerPenalty); err != nil {
		m.coord.SetError(networkErrorText)
		return
	}
	m.coord.CloseChallenge()
	m.phase = domain.PhaseTurnIdle
	m.notify(domain.NoticeWarning, noticeWrongAnswer)
	m.record(domain.JournalGameplay, "solve_fail", map[string]interface{}{"language": language})
}

func (m *Machine) onPretestPassed(code, language string) {
	q := m.coord.Current()
	if q == nil || m.session == nil {
		return
	}
	steps, rolled := m.scoring.Steps()
	if rolled {
		m.notify(domain.NoticeDice, fmt.Sprintf(noticeDiceRolled, steps))
	}
	m.phase = domain.PhaseSubmissionPending
	intent := dto.Intent{Event: dto.IntentSubmissionSuccess, Payload: dto.SubmissionSuccess{
		Room:     m.session.RoomCode,
		Code:     code,
		Language: language,
		QID:      q.ID,
		Steps:    steps,
	}}
	if err := m.send(intent); err != nil {
		m.phase = domain.PhaseChallengeOpen
		m.coord.SetError(networkErrorText)
		return
	}
	m.coord.CloseChallenge()
	m.phase = domain.PhaseHackWindow
	m.hackRole = domain.HackDefending
	m.roundOpen = false
	m.notify(domain.NoticeInfo, noticeAwaitReview)
	m.record(domain.JournalGameplay, "solve_success", map[string]interface{}{
		"q_id":     q.ID,
		"steps":    steps,
		"language": language,
		"rolled":   rolled,
	})
}

// --- 辅助方法 ---

func (m *Machine) requireMyTurn() error {
	if m.session == nil {
		return ErrNotJoined
	}
	if !m.session.MyTurn {
		return ErrNotYourTurn
	}
	return nil
}

func (m *Machine) sendMove(steps int) error {
	return m.send(dto.Intent{Event: dto.IntentPlayerMove, Payload: dto.PlayerMove{Steps: steps, Room: m.session.RoomCode}})
}

func (m *Machine) send(intent dto.Intent) error {
	logCtx := m.logCtx().WithField("event", intent.Event)
	if err := m.transport.Send(intent); err != nil {
		logCtx.WithError(err).Warn("Failed to send intent")
		return fmt.Errorf("send %s: %v: %w", intent.Event, err, ErrDisconnected)
	}
	logCtx.Debug("Outbound intent queued")
	return nil
}

func (m *Machine) notify(kind domain.NoticeKind, msg string) {
	m.noticeSeq++
	m.notices = append(m.notices, domain.Notice{Seq: m.noticeSeq, Kind: kind, Message: msg})
	if len(m.notices) > maxNotices {
		m.notices = append([]domain.Notice(nil), m.notices[len(m.notices)-maxNotices:]...)
	}
}

func (m *Machine) record(eventType, action string, data map[string]interface{}) {
	if m.recorder == nil || m.session == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		m.logCtx().WithError(err).Warn("Failed to encode journal data")
		raw = []byte("{}")
	}
	m.journalSeq++
	m.recorder.Record(domain.JournalEntry{
		DeviceID:  m.userID,
		RoomCode:  m.session.RoomCode,
		Color:     string(m.session.MyColor),
		EventType: eventType,
		Action:    action,
		Data:      string(raw),
		Seq:       m.journalSeq,
		Timestamp: m.clock.Now(),
	})
}

func (m *Machine) logCtx() *logrus.Entry {
	fields := logrus.Fields{"phase": m.phase}
	if m.session != nil {
		fields["room"] = m.session.RoomCode
		fields["color"] = m.session.MyColor
	}
	return logrus.WithFields(fields)
}

// commit 递增版本号并通知观察者。
func (m *Machine) commit() {
	m.version++
	if m.observer != nil {
		m.observer.Publish(m.Snapshot())
	}
}

// Snapshot 返回当前状态的深拷贝。
func (m *Machine) Snapshot() domain.Snapshot {
	ch, rv := m.coord.snapshot()
	return domain.Snapshot{
		Version:     m.version,
		Connected:   m.connected,
		Phase:       m.phase,
		HackRole:    m.hackRole,
		Session:     m.session.Clone(),
		LobbyName:   m.lobbyName,
		LobbyRoom:   m.lobbyRoom,
		LobbyStatus: m.lobbyStatus,
		Challenge:   ch,
		Review:      rv,
		Scoring:     m.scoring.Mode(),
		Animating:   m.animator.Active(),
		Won:         m.won,
		Notices:     append([]domain.Notice(nil), m.notices...),
	}
}
