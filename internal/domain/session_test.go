package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/domain"
)

func TestNewSession_AllHome(t *testing.T) {
	s := domain.NewSession("ABC", domain.Red, "ann", "uid-1", false)
	for _, c := range domain.BaseOrder {
		assert.Equal(t, domain.HomeStep, s.Position(c))
	}
	assert.False(t, s.MyTurn)
}

func TestSession_ReplacePositions_MissingAndClamped(t *testing.T) {
	s := domain.NewSession("ABC", domain.Red, "ann", "uid-1", true)
	s.ReplacePositions(map[domain.Color]int{domain.Red: 5, domain.Green: 12})

	s.ReplacePositions(map[domain.Color]int{
		domain.Red:    5,
		domain.Yellow: 10,
		domain.Blue:   200,
	})

	assert.Equal(t, 5, s.Position(domain.Red))
	assert.Equal(t, domain.HomeStep, s.Position(domain.Green), "同步中缺失的颜色应回到基地")
	assert.Equal(t, 10, s.Position(domain.Yellow))
	assert.Equal(t, domain.FinishStep, s.Position(domain.Blue), "越界位置应被截断到终点")
}

func TestSession_Step_StopsAtBoundaries(t *testing.T) {
	s := domain.NewSession("ABC", domain.Red, "ann", "uid-1", true)

	pos, moved := s.Step(domain.Red, -1)
	assert.False(t, moved, "基地中的棋子不能后退")
	assert.Equal(t, domain.HomeStep, pos)

	pos, moved = s.Step(domain.Red, 1)
	assert.True(t, moved)
	assert.Equal(t, 0, pos)

	s.ReplacePositions(map[domain.Color]int{domain.Red: domain.FinishStep})
	pos, moved = s.Step(domain.Red, 1)
	assert.False(t, moved, "终点的棋子不能继续前进")
	assert.Equal(t, domain.FinishStep, pos)
}

func TestSession_SetActive(t *testing.T) {
	s := domain.NewSession("ABC", domain.Green, "bob", "uid-2", true)

	s.SetActive(domain.Red)
	assert.Equal(t, domain.Red, s.ActiveColor)
	assert.False(t, s.MyTurn)

	s.SetActive(domain.Green)
	assert.True(t, s.MyTurn)
}

func TestSession_Clone_IsDeep(t *testing.T) {
	s := domain.NewSession("ABC", domain.Green, "bob", "uid-2", true)
	s.ReplaceRoster([]domain.Player{{Name: "bob", Color: domain.Green, Online: true}})

	cp := s.Clone()
	require.NotNil(t, cp)
	cp.Positions[domain.Green] = 30
	cp.Roster[0].Name = "mallory"

	assert.Equal(t, domain.HomeStep, s.Position(domain.Green))
	assert.Equal(t, "bob", s.Roster[0].Name)

	var nilSession *domain.Session
	assert.Nil(t, nilSession.Clone())
}
