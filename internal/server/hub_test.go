package server

import (
	"encoding/json"
	"testing"

	"fake-artist/internal/game"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(h *Hub, id string) *client {
	c := &client{id: id, send: make(chan []byte, 8), log: zerolog.Nop()}
	h.register(c)
	return c
}

func drain(c *client) []frame {
	var out []frame
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var f frame
			_ = json.Unmarshal(data, &f)
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestHubRoutesByRoom(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newHubClient(h, "a")
	b := newHubClient(h, "b")
	h.Subscribe("ROOM1", "a")
	h.Subscribe("ROOM2", "b")
	h.Subscribe("ROOM1", "ghost")

	h.ToRoom("ROOM1", game.TurnAdvanced{Turn: 1})
	h.ToClient("b", game.RoomFound{Code: "ROOM2"})

	got := drain(a)
	require.Len(t, got, 1)
	assert.Equal(t, "turn_advanced", got[0].Event)
	assert.JSONEq(t, `{"turn":1,"round":0,"drawingDone":false}`, string(got[0].Payload))

	got = drain(b)
	require.Len(t, got, 1)
	assert.Equal(t, "room_found", got[0].Event)
	assert.Equal(t, 1, h.members("ROOM1"))
}

func TestHubCloseRoomAndUnregister(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newHubClient(h, "a")
	h.Subscribe("ROOM1", "a")
	h.Subscribe("ROOM2", "a")

	h.CloseRoom("ROOM1")
	h.ToRoom("ROOM1", game.GameQuit{Reason: "quit"})
	assert.Empty(t, drain(a))

	h.unregister(a)
	assert.Zero(t, h.members("ROOM2"))
	_, open := <-a.send
	assert.False(t, open)
	h.ToClient("a", game.RoomFound{})
}
