package domain

// Player 是房间名单中的一个座位。身份由外部拥有，颜色由服务端在加入时分配。
type Player struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Color  Color  `json:"color"`
	Online bool   `json:"online"`
}
