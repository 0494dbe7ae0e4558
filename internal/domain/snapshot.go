package domain

// NoticeKind 区分提示的种类，渲染层据此选择样式。
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
	NoticeHack    NoticeKind = "hack"
	NoticeDice    NoticeKind = "dice"
	NoticeWin     NoticeKind = "win"
)

// Notice 是一条面向玩家的提示 (原先的 alert)。
type Notice struct {
	Seq     uint64     `json:"seq"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// ConsoleKind 是挑战弹窗控制台输出的状态。
type ConsoleKind string

const (
	ConsoleIdle    ConsoleKind = "idle"
	ConsoleRunning ConsoleKind = "running"
	ConsolePassed  ConsoleKind = "passed"
	ConsoleFailed  ConsoleKind = "failed"
)

// ChallengeState 是挑战弹窗的状态。
type ChallengeState struct {
	Loading     bool        `json:"loading"`
	Challenge   *Challenge  `json:"challenge,omitempty"`
	Error       string      `json:"error,omitempty"`
	Console     string      `json:"console"`
	ConsoleKind ConsoleKind `json:"console_kind"`
	Submitting  bool        `json:"submitting"`
}

// ReviewState 是评审方的 hack 面板状态。
type ReviewState struct {
	Review HackReview `json:"review"`
	Voted  bool       `json:"voted"`
	Log    string     `json:"log"`
	Error  string     `json:"error,omitempty"`
}

// Snapshot 是状态机在某一时刻的只读副本，渲染层只依赖它。
type Snapshot struct {
	Version     uint64          `json:"version"`
	Connected   bool            `json:"connected"`
	Phase       Phase           `json:"phase"`
	HackRole    HackRole        `json:"hack_role,omitempty"`
	Session     *Session        `json:"session,omitempty"`
	LobbyName   string          `json:"lobby_name"`
	LobbyRoom   string          `json:"lobby_room"`
	LobbyStatus string          `json:"lobby_status,omitempty"`
	Challenge   *ChallengeState `json:"challenge,omitempty"`
	Review      *ReviewState    `json:"review,omitempty"`
	Scoring     ScoringMode     `json:"scoring"`
	Animating   bool            `json:"animating"`
	Won         bool            `json:"won"`
	Notices     []Notice        `json:"notices"`
}

// CanOpenChallenge 表示此刻是否允许请求挑战。
func (s Snapshot) CanOpenChallenge() bool {
	if s.Session == nil || !s.Session.MyTurn {
		return false
	}
	if s.Challenge != nil && s.Challenge.Loading {
		return false
	}
	return s.Phase == PhaseTurnActive || s.Phase == PhaseChallengeOpen
}
