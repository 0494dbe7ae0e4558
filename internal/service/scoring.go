package service

import (
	"math/rand"
	"strings"

	"geek-ludo/internal/domain"
)

// Scoring 计算挑战成功后的奖励步数。
type Scoring struct {
	mode domain.ScoringMode
	roll func() int
}

// NewScoring 创建计分器。rng 为 nil 时使用默认随机源。
func NewScoring(mode domain.ScoringMode, rng *rand.Rand) *Scoring {
	if mode != domain.ScoringLuck {
		mode = domain.ScoringFixed
	}
	roll := func() int { return rand.Intn(6) + 1 }
	if rng != nil {
		roll = func() int { return rng.Intn(6) + 1 }
	}
	return &Scoring{mode: mode, roll: roll}
}

// ParseScoringMode 解析 "fixed" / "luck"。
func ParseScoringMode(s string) (domain.ScoringMode, error) {
	switch domain.ScoringMode(strings.ToLower(strings.TrimSpace(s))) {
	case domain.ScoringFixed:
		return domain.ScoringFixed, nil
	case domain.ScoringLuck:
		return domain.ScoringLuck, nil
	}
	return "", ErrInvalidScoringMode
}

func (s *Scoring) Mode() domain.ScoringMode { return s.mode }

func (s *Scoring) SetMode(mode domain.ScoringMode) { s.mode = mode }

// Steps 返回本次奖励步数；rolled 表示是否掷了骰子。
// 运气模式下的值原样上报，服务端不做校验。
func (s *Scoring) Steps() (steps int, rolled bool) {
	if s.mode == domain.ScoringLuck {
		return s.roll(), true
	}
	return domain.FixedReward, false
}
