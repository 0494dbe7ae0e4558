package service_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/service"
)

func TestScoring_Fixed(t *testing.T) {
	s := service.NewScoring(domain.ScoringFixed, nil)

	steps, rolled := s.Steps()

	assert.Equal(t, 3, steps)
	assert.False(t, rolled)
}

func TestScoring_LuckStaysWithinDie(t *testing.T) {
	s := service.NewScoring(domain.ScoringLuck, rand.New(rand.NewSource(42)))

	seen := map[int]bool{}
	for i := 0; i < 600; i++ {
		steps, rolled := s.Steps()
		assert.True(t, rolled)
		assert.GreaterOrEqual(t, steps, 1)
		assert.LessOrEqual(t, steps, 6)
		seen[steps] = true
	}
	assert.Len(t, seen, 6, "600 次掷骰应覆盖所有点数")
}

func TestScoring_UnknownModeFallsBackToFixed(t *testing.T) {
	s := service.NewScoring("chaos", nil)
	assert.Equal(t, domain.ScoringFixed, s.Mode())

	s.SetMode(domain.ScoringLuck)
	assert.Equal(t, domain.ScoringLuck, s.Mode())
}

func TestParseScoringMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    domain.ScoringMode
		wantErr bool
	}{
		{in: "fixed", want: domain.ScoringFixed},
		{in: " LUCK ", want: domain.ScoringLuck},
		{in: "dice", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := service.ParseScoringMode(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, service.ErrInvalidScoringMode)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
