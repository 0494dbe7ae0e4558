package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/dto"
)

func TestDecodeEnvelope_SyncState(t *testing.T) {
	raw := []byte(`{"event":"sync_state","data":{"positions":{"red":5,"yellow":10,"blue":0}}}`)

	env, err := dto.DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, dto.EventSyncState, env.Event)

	var p dto.SyncState
	require.NoError(t, env.DecodeData(&p))
	assert.Equal(t, 5, p.Positions[domain.Red])
	assert.Equal(t, 10, p.Positions[domain.Yellow])
	assert.Equal(t, 0, p.Positions[domain.Blue])
	_, ok := p.Positions[domain.Green]
	assert.False(t, ok)
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	_, err := dto.DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)

	_, err = dto.DecodeEnvelope([]byte(`{"data":{}}`))
	assert.Error(t, err, "缺少事件名的帧应被拒绝")
}

func TestEnvelope_DecodeData_EmptyIsNoop(t *testing.T) {
	for _, raw := range []string{`{"event":"game_started"}`, `{"event":"game_started","data":null}`, `{"event":"game_started","data":{}}`} {
		env, err := dto.DecodeEnvelope([]byte(raw))
		require.NoError(t, err)
		var p dto.GameStarted
		assert.NoError(t, env.DecodeData(&p), raw)
		assert.Empty(t, p.Message)
	}
}

func TestIntent_Encode(t *testing.T) {
	frame, err := dto.Intent{Event: dto.IntentPlayerMove, Payload: dto.PlayerMove{Steps: -3, Room: "ABC"}}.Encode()
	require.NoError(t, err)

	var decoded struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "player_move", decoded.Event)
	assert.Equal(t, float64(-3), decoded.Data["steps"])
	assert.Equal(t, "ABC", decoded.Data["room"])
}

func TestNewSubmitHackAttempt_WireAction(t *testing.T) {
	challenge := dto.NewSubmitHackAttempt("ABC", domain.HackAttempt{Action: domain.VerdictChallenge, TestInput: "1", ExpectedOutput: "2"})
	assert.Equal(t, "hack", challenge.Action)
	assert.Equal(t, "1", challenge.Input)
	assert.Equal(t, "2", challenge.Expected)

	accept := dto.NewSubmitHackAttempt("ABC", domain.HackAttempt{Action: domain.VerdictAccept})
	assert.Equal(t, "accept", accept.Action)
}

func TestVerdictRequest_Attempt(t *testing.T) {
	assert.Equal(t, domain.VerdictChallenge, dto.VerdictRequest{Action: "hack"}.Attempt().Action)
	assert.Equal(t, domain.VerdictChallenge, dto.VerdictRequest{Action: "challenge"}.Attempt().Action)
	assert.Equal(t, domain.VerdictAccept, dto.VerdictRequest{Action: "accept"}.Attempt().Action)
}

func TestHackPhaseStart_Review(t *testing.T) {
	raw := []byte(`{"event":"hack_phase_start","data":{"victim_color":"green","victim_name":"bob","code":"print(1)","question_text":"sum","sample_input":"1 2","sample_output":"3"}}`)
	env, err := dto.DecodeEnvelope(raw)
	require.NoError(t, err)

	var p dto.HackPhaseStart
	require.NoError(t, env.DecodeData(&p))
	r := p.Review()
	assert.Equal(t, domain.Green, r.VictimColor)
	assert.Equal(t, "bob", r.VictimName)
	assert.Equal(t, "print(1)", r.Code)
	assert.Equal(t, "3", r.SampleOutput)
}
