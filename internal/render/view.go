package render

import "geek-ludo/internal/domain"

// 界面上的几个屏幕
const (
	ScreenLobby   = "lobby"
	ScreenWaiting = "waiting"
	ScreenGame    = "game"
)

// View 是渲染层的输入，完全由 Snapshot 决定。
type View struct {
	Version      uint64          `json:"version"`
	Connected    bool            `json:"connected"`
	Screen       string          `json:"screen"`
	Phase        domain.Phase    `json:"phase"`
	Lobby        LobbyView       `json:"lobby"`
	StartVisible bool            `json:"start_visible"`
	Banner       Banner          `json:"banner"`
	TurnButton   Button          `json:"turn_button"`
	Roster       []RosterLine    `json:"roster"`
	Tokens       []Token         `json:"tokens"`
	AtHome       []domain.Color  `json:"at_home"`
	Challenge    *ChallengeView  `json:"challenge,omitempty"`
	Review       *ReviewView     `json:"review,omitempty"`
	LuckMode     bool            `json:"luck_mode"`
	Animating    bool            `json:"animating"`
	Won          bool            `json:"won"`
	Notices      []domain.Notice `json:"notices"`
}

type LobbyView struct {
	Visible bool   `json:"visible"`
	Name    string `json:"name"`
	Room    string `json:"room"`
	Status  string `json:"status,omitempty"`
}

type Banner struct {
	Text string `json:"text"`
	Hex  string `json:"hex"`
}

type Button struct {
	Label   string `json:"label"`
	Hex     string `json:"hex"`
	Enabled bool   `json:"enabled"`
}

type RosterLine struct {
	Text   string       `json:"text"`
	Hex    string       `json:"hex"`
	Color  domain.Color `json:"color"`
	Online bool         `json:"online"`
	Me     bool         `json:"me"`
}

// Token 是棋盘上一枚棋子的位置。基地中的棋子不在此列。
type Token struct {
	Color domain.Color `json:"color"`
	Step  int          `json:"step"`
	Row   int          `json:"row"`
	Col   int          `json:"col"`
}

type ChallengeView struct {
	Title        string `json:"title"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	StarterCode  string `json:"starter_code,omitempty"`
	Console      string `json:"console"`
	ConsoleHex   string `json:"console_hex"`
	Error        string `json:"error,omitempty"`
	Loading      bool   `json:"loading"`
	CanSubmit    bool   `json:"can_submit"`
	CanSkip      bool   `json:"can_skip"`
}

type ReviewView struct {
	Headline     string `json:"headline"`
	VictimHex    string `json:"victim_hex"`
	Code         string `json:"code"`
	QuestionText string `json:"question_text"`
	SampleInput  string `json:"sample_input"`
	SampleOutput string `json:"sample_output"`
	Log          string `json:"log"`
	Error        string `json:"error,omitempty"`
}
