package domain

import "strings"

// Challenge 是一道编程题。ID 是不透明的关联令牌，提交时原样带回。
// 题库服务只发放整数 id (提交时按 int(q_id) 查题)，非整数 id 按服务异常处理。
type Challenge struct {
	ID           int    `json:"id"`
	PromptText   string `json:"question"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	Difficulty   string `json:"difficulty,omitempty"`
	Rating       int    `json:"rating,omitempty"`
}

// Submission 是提交给评测服务的候选解。
type Submission struct {
	Code        string `json:"code"`
	ChallengeID int    `json:"q_id"`
	Language    string `json:"language"`
}

// JudgeKindSystem 表示评测基础设施故障，而不是答案错误。
const JudgeKindSystem = "system"

// JudgeResult 是预测试 (pretest) 的评测结果。
type JudgeResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Kind    string `json:"type,omitempty"`
}

// SystemFault 判断失败是否来自评测系统本身 (此时不扣分)。
func (r JudgeResult) SystemFault() bool {
	return !r.Success && r.Kind == JudgeKindSystem
}

// Verdict 是评审者对行棋者代码的裁决。
type Verdict string

const (
	VerdictAccept    Verdict = "accept"
	VerdictChallenge Verdict = "challenge"
)

// HackAttempt 是一次评审投票。Challenge 时必须同时给出反例输入和期望输出。
type HackAttempt struct {
	Action         Verdict `json:"action"`
	TestInput      string  `json:"input"`
	ExpectedOutput string  `json:"expected"`
}

// Complete 判断投票能否发送：accept 总是可以，challenge 要求两个字段都非空白。
func (h HackAttempt) Complete() bool {
	switch h.Action {
	case VerdictAccept:
		return true
	case VerdictChallenge:
		return strings.TrimSpace(h.TestInput) != "" && strings.TrimSpace(h.ExpectedOutput) != ""
	}
	return false
}

// HackReview 是 hack_phase_start 带来的待评审内容。
type HackReview struct {
	VictimColor  Color  `json:"victim_color"`
	VictimName   string `json:"victim_name"`
	Code         string `json:"code"`
	QuestionText string `json:"question_text"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
}
