package domain

// Cell 是棋盘上的一个格子坐标 (行, 列)，从 1 开始。
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PathLength 是每种颜色路径的格子数，包含最后的终点冲刺段。
const PathLength = 57

// HomeStep 表示棋子尚未离开基地。
const HomeStep = -1

// FinishStep 是终点格的步数索引。
const FinishStep = PathLength - 1

// 外圈共 52 格，各颜色从自己的入口走 51 格，再进入 6 格的终点冲刺段。
var outerLoop = []Cell{
	{7, 2}, {7, 3}, {7, 4}, {7, 5}, {7, 6},
	{6, 7}, {5, 7}, {4, 7}, {3, 7}, {2, 7}, {1, 7},
	{1, 8}, {1, 9},
	{2, 9}, {3, 9}, {4, 9}, {5, 9}, {6, 9},
	{7, 10}, {7, 11}, {7, 12}, {7, 13}, {7, 14}, {7, 15},
	{8, 15}, {9, 15},
	{9, 14}, {9, 13}, {9, 12}, {9, 11}, {9, 10},
	{10, 9}, {11, 9}, {12, 9}, {13, 9}, {14, 9}, {15, 9},
	{15, 8}, {15, 7},
	{14, 7}, {13, 7}, {12, 7}, {11, 7}, {10, 7},
	{9, 6}, {9, 5}, {9, 4}, {9, 3}, {9, 2}, {9, 1},
	{8, 1}, {7, 1},
}

// 每种颜色在外圈上的入口偏移
var entryOffset = map[Color]int{
	Red:    0,
	Green:  13,
	Yellow: 26,
	Blue:   39,
}

var homeRun = map[Color][]Cell{
	Red:    {{8, 2}, {8, 3}, {8, 4}, {8, 5}, {8, 6}, {8, 7}},
	Green:  {{2, 8}, {3, 8}, {4, 8}, {5, 8}, {6, 8}, {7, 8}},
	Yellow: {{8, 14}, {8, 13}, {8, 12}, {8, 11}, {8, 10}, {8, 9}},
	Blue:   {{14, 8}, {13, 8}, {12, 8}, {11, 8}, {10, 8}, {9, 8}},
}

// paths 在包初始化时计算一次，之后只读。
var paths = buildPaths()

func buildPaths() map[Color][]Cell {
	const loopSteps = 51
	out := make(map[Color][]Cell, len(BaseOrder))
	for _, c := range BaseOrder {
		p := make([]Cell, 0, PathLength)
		for i := 0; i < loopSteps; i++ {
			p = append(p, outerLoop[(entryOffset[c]+i)%len(outerLoop)])
		}
		p = append(p, homeRun[c]...)
		out[c] = p
	}
	return out
}

// PathFor 返回颜色路径的副本；未知颜色返回 nil。
func PathFor(c Color) []Cell {
	p, ok := paths[c]
	if !ok {
		return nil
	}
	cp := make([]Cell, len(p))
	copy(cp, p)
	return cp
}

// PathLen 返回颜色路径长度；未知颜色为 0。
func PathLen(c Color) int { return len(paths[c]) }

// CellAt 返回颜色在某步数上的格子。基地 (-1) 或越界时 ok 为 false。
func CellAt(c Color, step int) (Cell, bool) {
	p := paths[c]
	if step < 0 || step >= len(p) {
		return Cell{}, false
	}
	return p[step], true
}

// ClampStep 把步数限制在 [-1, pathLen-1] 内。
func ClampStep(c Color, step int) int {
	if step < HomeStep {
		return HomeStep
	}
	if last := PathLen(c) - 1; step > last {
		return last
	}
	return step
}
