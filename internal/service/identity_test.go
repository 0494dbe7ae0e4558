package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/repository"
	"geek-ludo/internal/repository/mocks"
	"geek-ludo/internal/service"
)

func TestIdentityProvider_DeviceID_Existing(t *testing.T) {
	// Arrange
	prefs := mocks.NewPreferenceRepository(t)
	prefs.On("Get", anyCtx, repository.PrefKeyUserID).Return("uid-123", nil).Once()
	p := service.NewIdentityProvider(prefs)

	// Act
	id, err := p.DeviceID(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "uid-123", id)
	prefs.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdentityProvider_DeviceID_GeneratesAndPersists(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	prefs.On("Get", anyCtx, repository.PrefKeyUserID).Return("", repository.ErrPreferenceNotFound).Once()
	var stored string
	prefs.On("Set", anyCtx, repository.PrefKeyUserID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil).Once()
	p := service.NewIdentityProvider(prefs)

	id, err := p.DeviceID(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, stored, id, "返回的 ID 应与持久化的值一致")
}

func TestIdentityProvider_DeviceID_StoreDown(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	storeErr := errors.New("disk full")
	prefs.On("Get", anyCtx, repository.PrefKeyUserID).Return("", storeErr).Once()
	p := service.NewIdentityProvider(prefs)

	id, err := p.DeviceID(context.Background())

	assert.ErrorIs(t, err, storeErr)
	assert.NotEmpty(t, id, "存储不可用时仍返回临时 ID")
}

func TestIdentityProvider_DeviceID_PersistFails(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	setErr := errors.New("read-only")
	prefs.On("Get", anyCtx, repository.PrefKeyUserID).Return("", repository.ErrPreferenceNotFound).Once()
	prefs.On("Set", anyCtx, repository.PrefKeyUserID, mock.AnythingOfType("string")).Return(setErr).Once()
	p := service.NewIdentityProvider(prefs)

	id, err := p.DeviceID(context.Background())

	assert.ErrorIs(t, err, setErr)
	assert.NotEmpty(t, id)
}

func TestIdentityProvider_LobbyDefaults(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	prefs.On("Get", anyCtx, repository.PrefKeyName).Return("ann", nil).Once()
	prefs.On("Get", anyCtx, repository.PrefKeyRoom).Return("", repository.ErrPreferenceNotFound).Once()
	p := service.NewIdentityProvider(prefs)

	name, room := p.LobbyDefaults(context.Background())

	assert.Equal(t, "ann", name)
	assert.Empty(t, room)
}

func TestIdentityProvider_RememberLobby(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	prefs.On("Set", anyCtx, repository.PrefKeyName, "ann").Return(nil).Once()
	prefs.On("Set", anyCtx, repository.PrefKeyRoom, "ABC").Return(nil).Once()
	p := service.NewIdentityProvider(prefs)

	assert.NoError(t, p.RememberLobby(context.Background(), "ann", "ABC"))
}

func TestIdentityProvider_RememberLobby_StopsOnError(t *testing.T) {
	prefs := mocks.NewPreferenceRepository(t)
	prefs.On("Set", anyCtx, repository.PrefKeyName, "ann").Return(errors.New("nope")).Once()
	p := service.NewIdentityProvider(prefs)

	err := p.RememberLobby(context.Background(), "ann", "ABC")

	assert.Error(t, err)
	prefs.AssertNotCalled(t, "Set", mock.Anything, repository.PrefKeyRoom, mock.Anything)
}
