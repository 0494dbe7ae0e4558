package domain

// Phase 是客户端回合状态机的当前阶段。
type Phase string

const (
	PhaseLobby             Phase = "lobby"
	PhaseWaitingForStart   Phase = "waiting_for_start"
	PhaseTurnIdle          Phase = "turn_idle"
	PhaseTurnActive        Phase = "turn_active"
	PhaseChallengeOpen     Phase = "challenge_open"
	PhaseSubmissionPending Phase = "submission_pending"
	PhaseHackWindow        Phase = "hack_window"
	PhaseResolutionPending Phase = "resolution_pending"
)

// InTurn 表示一个回合正在进行中 (挑战已打开直到结算)。
func (p Phase) InTurn() bool {
	switch p {
	case PhaseChallengeOpen, PhaseSubmissionPending, PhaseHackWindow, PhaseResolutionPending:
		return true
	}
	return false
}

// HackRole 区分 hack 窗口中的防守方和评审方。
type HackRole string

const (
	HackNone      HackRole = ""
	HackDefending HackRole = "defending"
	HackAttacking HackRole = "attacking"
)

// ScoringMode 决定挑战成功后的奖励步数。
type ScoringMode string

const (
	ScoringFixed ScoringMode = "fixed"
	ScoringLuck  ScoringMode = "luck"
)

// FixedReward 是固定模式下的奖励步数。
const FixedReward = 3

// 惩罚步数
const (
	WrongAnswerPenalty = -3
	SkipPenalty        = -2
)
