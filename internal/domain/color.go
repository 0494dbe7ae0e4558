package domain

import (
	"fmt"
	"strings"
)

// Color 表示房间内的一个座位颜色。
type Color string

const (
	Red    Color = "red"
	Green  Color = "green"
	Yellow Color = "yellow"
	Blue   Color = "blue"
)

// BaseOrder 是服务端使用的固定回合顺序，也用于稳定地遍历所有颜色。
var BaseOrder = []Color{Red, Green, Yellow, Blue}

// ParseColor 解析颜色字符串 (忽略大小写和首尾空白)
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// Valid 判断颜色是否属于四种座位颜色之一
func (c Color) Valid() bool {
	switch c {
	case Red, Green, Yellow, Blue:
		return true
	}
	return false
}

// Hex 返回颜色在界面上使用的色值
func (c Color) Hex() string {
	switch c {
	case Red:
		return "#e74c3c"
	case Green:
		return "#2ecc71"
	case Blue:
		return "#3498db"
	case Yellow:
		return "#f1c40f"
	}
	return "#333"
}

func (c Color) Upper() string { return strings.ToUpper(string(c)) }
