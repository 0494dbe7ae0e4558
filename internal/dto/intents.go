package dto

import "geek-ludo/internal/domain"

// 本地界面通过控制接口 (HTTP 或 /ws/view) 发出的意图名
const (
	UIJoin          = "join"
	UIStart         = "start"
	UIOpenChallenge = "open_challenge"
	UISubmit        = "submit"
	UISkip          = "skip"
	UIVerdict       = "verdict"
	UIScoring       = "scoring"
	UIExit          = "exit"
)

// JoinRequest 是大厅表单的内容。空白值由服务层校验，以便在大厅中显示提示。
type JoinRequest struct {
	Room  string `json:"room"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// SubmitRequest 是挑战弹窗中的代码和语言。
type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// VerdictRequest 是评审面板的投票。
type VerdictRequest struct {
	Action   string `json:"action" binding:"required"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Attempt 转换为领域模型。线上的 "hack" 也被当作 challenge 接受。
func (v VerdictRequest) Attempt() domain.HackAttempt {
	action := domain.Verdict(v.Action)
	if v.Action == WireActionHack {
		action = domain.VerdictChallenge
	}
	return domain.HackAttempt{Action: action, TestInput: v.Input, ExpectedOutput: v.Expected}
}

// ScoringRequest 切换奖励模式。
type ScoringRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// TokenResponse 是签发的控制令牌。
type TokenResponse struct {
	Token string `json:"token"`
}
