package render

import (
	"fmt"
	"strings"

	"geek-ludo/internal/domain"
)

const (
	defendingBanner = "🛡️ DEFENDING... PLAYERS ARE REVIEWING YOUR CODE"
	defendingHex    = "#e74c3c"
	myTurnLabel     = "⚔️ YOUR TURN"
	myTurnHex       = "#27ae60"
	waitingHex      = "grey"
	offlineHex      = "#7f8c8d"
	loadingTitle    = "Connecting..."
	placeholderText = "..."
	starterCode     = "# Tip: Use input() to read values\n# Do not print prompt text like input('Enter number')\n\n"
)

// Project 把快照投影为视图。它是纯函数：相同的快照总是得到相同的视图。
func Project(s domain.Snapshot) View {
	v := View{
		Version:   s.Version,
		Connected: s.Connected,
		Phase:     s.Phase,
		LuckMode:  s.Scoring == domain.ScoringLuck,
		Animating: s.Animating,
		Won:       s.Won,
		Notices:   append([]domain.Notice{}, s.Notices...),
		Roster:    []RosterLine{},
		Tokens:    []Token{},
		AtHome:    []domain.Color{},
		Lobby: LobbyView{
			Name:   s.LobbyName,
			Room:   s.LobbyRoom,
			Status: s.LobbyStatus,
		},
	}

	sess := s.Session
	if sess == nil {
		v.Screen = ScreenLobby
		v.Lobby.Visible = true
		v.Banner = Banner{Text: "", Hex: domain.Color("").Hex()}
		return v
	}

	v.Screen = ScreenGame
	if s.Phase == domain.PhaseWaitingForStart {
		v.Screen = ScreenWaiting
	}
	v.StartVisible = !sess.Started
	v.Banner = projectBanner(s)
	v.TurnButton = projectTurnButton(s)
	v.Roster = projectRoster(sess)
	v.Tokens, v.AtHome = projectTokens(sess)
	v.Challenge = projectChallenge(s)
	v.Review = projectReview(s)
	return v
}

func projectBanner(s domain.Snapshot) Banner {
	if s.Phase == domain.PhaseHackWindow && s.HackRole == domain.HackDefending {
		return Banner{Text: defendingBanner, Hex: defendingHex}
	}
	sess := s.Session
	if sess.ActiveColor == "" {
		return Banner{Text: fmt.Sprintf("ROOM %s", sess.RoomCode), Hex: domain.Color("").Hex()}
	}
	return Banner{
		Text: fmt.Sprintf("ROOM %s | TURN: %s", sess.RoomCode, sess.ActiveColor.Upper()),
		Hex:  sess.ActiveColor.Hex(),
	}
}

func projectTurnButton(s domain.Snapshot) Button {
	sess := s.Session
	if sess.ActiveColor == "" {
		return Button{Label: "WAITING", Hex: waitingHex}
	}
	if sess.MyTurn {
		return Button{Label: myTurnLabel, Hex: myTurnHex, Enabled: s.CanOpenChallenge()}
	}
	return Button{Label: "WAITING FOR " + sess.ActiveColor.Upper(), Hex: waitingHex}
}

func projectRoster(sess *domain.Session) []RosterLine {
	lines := make([]RosterLine, 0, len(sess.Roster))
	for _, p := range sess.Roster {
		me := p.Color == sess.MyColor && p.Name == sess.PlayerName
		var b strings.Builder
		hex := p.Color.Hex()
		if !p.Online {
			b.WriteString("(OFFLINE) ")
			hex = offlineHex
		}
		fmt.Fprintf(&b, "● %s (%s)", strings.ToUpper(p.Name), p.Color.Upper())
		if me {
			b.WriteString(" (YOU)")
		}
		lines = append(lines, RosterLine{Text: b.String(), Hex: hex, Color: p.Color, Online: p.Online, Me: me})
	}
	return lines
}

func projectTokens(sess *domain.Session) ([]Token, []domain.Color) {
	tokens := []Token{}
	home := []domain.Color{}
	for _, c := range domain.BaseOrder {
		step := sess.Position(c)
		cell, ok := domain.CellAt(c, step)
		if !ok {
			home = append(home, c)
			continue
		}
		tokens = append(tokens, Token{Color: c, Step: step, Row: cell.Row, Col: cell.Col})
	}
	return tokens, home
}

func projectChallenge(s domain.Snapshot) *ChallengeView {
	ch := s.Challenge
	if ch == nil {
		return nil
	}
	cv := &ChallengeView{
		Title:        loadingTitle,
		SampleInput:  placeholderText,
		SampleOutput: placeholderText,
		Console:      ch.Console,
		ConsoleHex:   consoleHex(ch.ConsoleKind),
		Error:        ch.Error,
		Loading:      ch.Loading,
	}
	switch {
	case ch.Loading:
	case ch.Challenge != nil:
		q := ch.Challenge
		cv.Title = fmt.Sprintf("CHALLENGE #%d: %s", q.ID, q.PromptText)
		cv.SampleInput = q.SampleInput
		cv.SampleOutput = q.SampleOutput
		cv.StarterCode = starterCode
	case ch.Error != "":
		cv.Title = ch.Error
	}
	cv.CanSubmit = s.Phase == domain.PhaseChallengeOpen && ch.Challenge != nil && !ch.Loading && !ch.Submitting
	cv.CanSkip = s.Phase == domain.PhaseChallengeOpen
	return cv
}

func consoleHex(k domain.ConsoleKind) string {
	switch k {
	case domain.ConsoleRunning:
		return "yellow"
	case domain.ConsoleFailed:
		return "red"
	}
	return "#00ff00"
}

func projectReview(s domain.Snapshot) *ReviewView {
	// 防守方永远看不到评审面板
	if s.Review == nil || s.HackRole != domain.HackAttacking {
		return nil
	}
	r := s.Review.Review
	return &ReviewView{
		Headline:     fmt.Sprintf("%s has submitted. Can you break it?", strings.ToUpper(r.VictimName)),
		VictimHex:    r.VictimColor.Hex(),
		Code:         r.Code,
		QuestionText: r.QuestionText,
		SampleInput:  r.SampleInput,
		SampleOutput: r.SampleOutput,
		Log:          s.Review.Log,
		Error:        s.Review.Error,
	}
}
