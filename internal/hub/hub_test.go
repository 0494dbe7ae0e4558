package hub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectAll struct{ calls int }

func (d *rejectAll) Dispatch(context.Context, []byte) error {
	d.calls++
	return errors.New("not your turn")
}

func TestHub_HandleIntentRepliesToSender(t *testing.T) {
	// Arrange
	d := &rejectAll{}
	h := NewHub(d)
	client := NewClient(h, nil, "uid-local")
	h.registerClient(client)

	// Act
	h.handleIntent(context.Background(), HubMessage{Type: "intent", Client: client, RawData: []byte(`{"event":"start"}`)})

	// Assert
	assert.Equal(t, "uid-local", client.DeviceID())
	assert.NotEmpty(t, client.ID())
	assert.Equal(t, 1, d.calls)
	require.Len(t, client.send, 1)
	var reply map[string]string
	require.NoError(t, json.Unmarshal(<-client.send, &reply))
	assert.Equal(t, map[string]string{"type": MessageTypeError, "message": "not your turn"}, reply)
}

func TestHub_UnregisterTwiceIsHarmless(t *testing.T) {
	h := NewHub(&rejectAll{})
	client := NewClient(h, nil, "uid-local")
	h.registerClient(client)

	h.unregisterClient(client)

	assert.NotPanics(t, func() { h.unregisterClient(client) })
	assert.NotPanics(t, func() { client.sendError("late") }, "send 已关闭时丢弃错误回复")
	assert.Equal(t, 0, h.ClientCount())
}
