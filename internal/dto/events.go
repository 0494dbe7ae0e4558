package dto

import (
	"encoding/json"
	"fmt"

	"geek-ludo/internal/domain"
)

// 服务端推送的事件名
const (
	EventJoinSuccess      = "join_success"
	EventJoinError        = "join_error"
	EventUpdatePlayerList = "update_player_list"
	EventSyncState        = "sync_state"
	EventTurnChange       = "turn_change"
	EventGameStarted      = "game_started"
	EventAnimateMove      = "animate_move"
	EventCheckpointAlert  = "checkpoint_alert"
	EventHackPhaseStart   = "hack_phase_start"
	EventHackLog          = "hack_log"
	EventHackPhaseEnd     = "hack_phase_end"
)

// 客户端发出的意图名
const (
	IntentJoinGame          = "join_game"
	IntentStartGame         = "start_game"
	IntentPlayerMove        = "player_move"
	IntentSubmissionSuccess = "submission_success"
	IntentSubmitHackAttempt = "submit_hack_attempt"
)

// Envelope 是 WebSocket 文本帧的统一外层结构。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- 入站事件 ---

type JoinSuccess struct {
	Room    string       `json:"room"`
	Color   domain.Color `json:"color"`
	Started bool         `json:"started"`
}

type JoinError struct {
	Message string `json:"message"`
}

type PlayerEntry struct {
	Name   string       `json:"name"`
	Color  domain.Color `json:"color"`
	Online bool         `json:"online"`
}

type UpdatePlayerList struct {
	Players []PlayerEntry `json:"players"`
}

// Roster 转换为领域模型，保持原有顺序。
func (u UpdatePlayerList) Roster() []domain.Player {
	out := make([]domain.Player, 0, len(u.Players))
	for _, p := range u.Players {
		out = append(out, domain.Player{Name: p.Name, Color: p.Color, Online: p.Online})
	}
	return out
}

type SyncState struct {
	Positions map[domain.Color]int `json:"positions"`
}

type TurnChange struct {
	ActiveColor domain.Color `json:"active_color"`
}

type GameStarted struct {
	Message string `json:"message"`
}

type AnimateMove struct {
	Color           domain.Color `json:"color"`
	TotalStepsMoved int          `json:"total_steps_moved"`
}

type CheckpointAlert struct {
	Message string `json:"message"`
}

type HackPhaseStart struct {
	VictimColor  domain.Color `json:"victim_color"`
	VictimName   string       `json:"victim_name"`
	Code         string       `json:"code"`
	QuestionText string       `json:"question_text"`
	SampleInput  string       `json:"sample_input"`
	SampleOutput string       `json:"sample_output"`
}

// Review 转换为领域模型
func (h HackPhaseStart) Review() domain.HackReview {
	return domain.HackReview{
		VictimColor:  h.VictimColor,
		VictimName:   h.VictimName,
		Code:         h.Code,
		QuestionText: h.QuestionText,
		SampleInput:  h.SampleInput,
		SampleOutput: h.SampleOutput,
	}
}

type HackLog struct {
	Message string `json:"message"`
}

type HackPhaseEnd struct{}

// --- 出站意图 ---

type JoinGame struct {
	Room   string       `json:"room"`
	Color  domain.Color `json:"color"`
	Name   string       `json:"name"`
	UserID string       `json:"user_id"`
}

type StartGame struct {
	Room string `json:"room"`
}

type PlayerMove struct {
	Steps int    `json:"steps"`
	Room  string `json:"room"`
}

type SubmissionSuccess struct {
	Room     string `json:"room"`
	Code     string `json:"code"`
	Language string `json:"language"`
	QID      int    `json:"q_id"`
	Steps    int    `json:"steps"`
}

// 服务端识别的投票动作值
const (
	WireActionAccept = "accept"
	WireActionHack   = "hack"
)

type SubmitHackAttempt struct {
	Room     string `json:"room"`
	Action   string `json:"action"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// NewSubmitHackAttempt 把领域裁决映射为线上格式。
func NewSubmitHackAttempt(room string, h domain.HackAttempt) SubmitHackAttempt {
	action := WireActionAccept
	if h.Action == domain.VerdictChallenge {
		action = WireActionHack
	}
	return SubmitHackAttempt{Room: room, Action: action, Input: h.TestInput, Expected: h.ExpectedOutput}
}

// Intent 是一个待发送的出站消息。
type Intent struct {
	Event   string
	Payload interface{}
}

// Encode 把意图序列化为一个文本帧。
func (i Intent) Encode() ([]byte, error) {
	data, err := json.Marshal(i.Payload)
	if err != nil {
		return nil, fmt.Errorf("dto: marshal %s payload: %w", i.Event, err)
	}
	return json.Marshal(Envelope{Event: i.Event, Data: data})
}

// DecodeEnvelope 解析一个入站文本帧的外层。
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("dto: decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("dto: envelope without event name")
	}
	return env, nil
}

// DecodeData 把事件数据解析到 out；空数据视为空对象。
func (e Envelope) DecodeData(out interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("dto: decode %s data: %w", e.Event, err)
	}
	return nil
}
