package domain

// Session 是本客户端在一个房间内的视图。房间码和颜色在加入后不可变，
// 名单和位置只在权威同步事件到来时整体替换 (动画回放除外)。
type Session struct {
	RoomCode    string        `json:"room"`
	MyColor     Color         `json:"color"`
	PlayerName  string        `json:"name"`
	UserID      string        `json:"user_id"`
	Started     bool          `json:"started"`
	ActiveColor Color         `json:"active_color,omitempty"`
	MyTurn      bool          `json:"my_turn"`
	Roster      []Player      `json:"roster"`
	Positions   map[Color]int `json:"positions"`
}

// NewSession 在加入确认后创建会话，所有颜色都在基地。
func NewSession(room string, color Color, name, userID string, started bool) *Session {
	s := &Session{
		RoomCode:   room,
		MyColor:    color,
		PlayerName: name,
		UserID:     userID,
		Started:    started,
		Positions:  make(map[Color]int, len(BaseOrder)),
	}
	for _, c := range BaseOrder {
		s.Positions[c] = HomeStep
	}
	return s
}

// ReplaceRoster 整体替换名单，保持服务端给出的顺序。
func (s *Session) ReplaceRoster(players []Player) {
	s.Roster = append([]Player(nil), players...)
}

// ReplacePositions 整体覆盖所有颜色的位置；缺失的颜色视为回到基地。
func (s *Session) ReplacePositions(positions map[Color]int) {
	next := make(map[Color]int, len(BaseOrder))
	for _, c := range BaseOrder {
		step, ok := positions[c]
		if !ok {
			step = HomeStep
		}
		next[c] = ClampStep(c, step)
	}
	s.Positions = next
}

// Position 返回颜色的当前步数；未知颜色在基地。
func (s *Session) Position(c Color) int {
	step, ok := s.Positions[c]
	if !ok {
		return HomeStep
	}
	return step
}

// Step 把颜色移动一格 (dir 为 +1 或 -1)，返回移动后的步数以及是否真的移动了。
func (s *Session) Step(c Color, dir int) (int, bool) {
	cur := s.Position(c)
	next := ClampStep(c, cur+dir)
	s.Positions[c] = next
	return next, next != cur
}

// SetActive 记录当前行棋颜色并更新 MyTurn。
func (s *Session) SetActive(c Color) {
	s.ActiveColor = c
	s.MyTurn = c == s.MyColor
}

// Clone 返回深拷贝，供渲染使用。
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Roster = append([]Player(nil), s.Roster...)
	cp.Positions = make(map[Color]int, len(s.Positions))
	for k, v := range s.Positions {
		cp.Positions[k] = v
	}
	return &cp
}
