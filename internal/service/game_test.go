package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/dto"
	"geek-ludo/internal/repository"
	"geek-ludo/internal/repository/mocks"
	"geek-ludo/internal/service"
)

type gameFixture struct {
	*harness
	prefs *mocks.PreferenceRepository
	game  *service.GameService
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	h := newHarness(t)
	prefs := mocks.NewPreferenceRepository(t)
	engine, _ := runEngine(t)
	game := service.NewGameService(engine, h.machine, service.NewIdentityProvider(prefs), nil)
	return &gameFixture{harness: h, prefs: prefs, game: game}
}

func uiFrame(t *testing.T, event string, data interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	raw, err := json.Marshal(dto.Envelope{Event: event, Data: payload})
	require.NoError(t, err)
	return raw
}

func TestGameService_Join_RemembersLobby(t *testing.T) {
	// Arrange
	f := newGameFixture(t)
	f.prefs.On("Set", anyCtx, repository.PrefKeyName, "ann").Return(nil).Once()
	f.prefs.On("Set", anyCtx, repository.PrefKeyRoom, "ABC").Return(nil).Once()

	// Act
	err := f.game.Join(context.Background(), "abc", "ann", "red")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, dto.IntentJoinGame, f.transport.Last().Event)
}

func TestGameService_Join_InvalidSkipsPreferences(t *testing.T) {
	f := newGameFixture(t)

	err := f.game.Join(context.Background(), "", "ann", "red")

	assert.ErrorIs(t, err, service.ErrInvalidJoin)
	f.prefs.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestGameService_Dispatch_Join(t *testing.T) {
	f := newGameFixture(t)
	f.prefs.On("Set", anyCtx, mock.Anything, mock.Anything).Return(nil)

	err := f.game.Dispatch(context.Background(), uiFrame(t, dto.UIJoin, dto.JoinRequest{Room: "abc", Name: "ann", Color: "green"}))

	require.NoError(t, err)
	req := intentPayload[dto.JoinGame](t, f.transport.Last())
	assert.Equal(t, domain.Green, req.Color)
}

func TestGameService_Dispatch_UnknownIntent(t *testing.T) {
	f := newGameFixture(t)

	err := f.game.Dispatch(context.Background(), uiFrame(t, "teleport", map[string]interface{}{}))

	assert.ErrorIs(t, err, service.ErrUnknownIntent)
	require.Eventually(t, func() bool {
		snap, err := f.game.Snapshot(context.Background())
		return err == nil && len(snap.Notices) == 1
	}, time.Second, 5*time.Millisecond, "被拒绝的意图应作为提示显示")
}

func TestGameService_Dispatch_Malformed(t *testing.T) {
	f := newGameFixture(t)

	err := f.game.Dispatch(context.Background(), []byte("not json"))

	assert.Error(t, err)
}

func TestGameService_Dispatch_RejectedIntentShowsReason(t *testing.T) {
	f := newGameFixture(t)

	err := f.game.Dispatch(context.Background(), uiFrame(t, dto.UISkip, map[string]interface{}{}))

	assert.ErrorIs(t, err, service.ErrNotJoined)
	require.Eventually(t, func() bool {
		snap, _ := f.game.Snapshot(context.Background())
		n := len(snap.Notices)
		return n > 0 && snap.Notices[n-1].Message == service.ErrNotJoined.Error()
	}, time.Second, 5*time.Millisecond)
}

func TestGameService_SetScoringMode(t *testing.T) {
	f := newGameFixture(t)

	assert.ErrorIs(t, f.game.SetScoringMode(context.Background(), "dice"), service.ErrInvalidScoringMode)
	require.NoError(t, f.game.SetScoringMode(context.Background(), "luck"))

	snap, err := f.game.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ScoringLuck, snap.Scoring)
}

func TestGameService_HandleFrame_AppliesInOrder(t *testing.T) {
	f := newGameFixture(t)
	f.prefs.On("Set", anyCtx, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.game.Join(context.Background(), "abc", "ann", "red"))

	f.game.HandleFrame(uiFrame(t, dto.EventJoinSuccess, dto.JoinSuccess{Room: "ABC", Color: domain.Red}))
	f.game.HandleFrame(uiFrame(t, dto.EventSyncState, dto.SyncState{Positions: map[domain.Color]int{domain.Red: 4}}))
	f.game.Connected()

	snap, err := f.game.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Session)
	assert.Equal(t, 4, snap.Session.Positions[domain.Red])
	assert.True(t, snap.Connected)
}

func TestGameService_Journal_Disabled(t *testing.T) {
	f := newGameFixture(t)

	entries, err := f.game.Journal(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGameService_LoadLobbyDefaults(t *testing.T) {
	f := newGameFixture(t)
	f.prefs.On("Get", anyCtx, repository.PrefKeyName).Return("ann", nil).Once()
	f.prefs.On("Get", anyCtx, repository.PrefKeyRoom).Return("ABC", nil).Once()

	require.NoError(t, f.game.LoadLobbyDefaults(context.Background()))

	snap, err := f.game.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann", snap.LobbyName)
	assert.Equal(t, "ABC", snap.LobbyRoom)
}
