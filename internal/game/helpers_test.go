package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu      sync.Mutex
	rooms   map[string][]Event
	clients map[string][]Event
	subs    map[string]map[string]bool
	closed  map[string]bool
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		rooms:   make(map[string][]Event),
		clients: make(map[string][]Event),
		subs:    make(map[string]map[string]bool),
		closed:  make(map[string]bool),
	}
}

func (b *recordingBroadcaster) ToRoom(code string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rooms[code] = append(b.rooms[code], ev)
}

func (b *recordingBroadcaster) ToClient(clientID string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[clientID] = append(b.clients[clientID], ev)
}

func (b *recordingBroadcaster) Subscribe(code, clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[string]bool)
	}
	b.subs[code][clientID] = true
}

func (b *recordingBroadcaster) Unsubscribe(code, clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[code], clientID)
}

func (b *recordingBroadcaster) CloseRoom(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed[code] = true
	delete(b.subs, code)
}

func (b *recordingBroadcaster) roomEvents(code, name string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, ev := range b.rooms[code] {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

func (b *recordingBroadcaster) clientEvents(clientID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.clients[clientID]...)
}

func (b *recordingBroadcaster) isSubscribed(code, clientID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[code][clientID]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testCategory = Category{ID: "1", Topic: "Animals", Subject: "Giraffe"}

func newTestDirectory(t *testing.T, opts Options) (*Directory, *recordingBroadcaster) {
	t.Helper()
	rec := newRecordingBroadcaster()
	opts.Logger = zerolog.Nop()
	d := NewDirectory(NewStaticCatalog(testCategory), rec, opts)
	d.pick = func(n int) int { return 0 }
	t.Cleanup(d.Close)
	return d, rec
}

func createRoom(t *testing.T, d *Directory, maxRounds int) string {
	t.Helper()
	res := d.Dispatch(context.Background(), "creator", "", CreateRoom{MaxRounds: maxRounds})
	require.NoError(t, res.Err)
	require.Len(t, res.Events, 1)
	created, ok := res.Events[0].(RoomCreated)
	require.True(t, ok)
	return created.Code
}

func joinRoom(t *testing.T, d *Directory, code, clientID, name string) string {
	t.Helper()
	return joinRoomAs(t, d, code, clientID, name, false)
}

func joinRoomAs(t *testing.T, d *Directory, code, clientID, name string, spectator bool) string {
	t.Helper()
	res := d.Dispatch(context.Background(), clientID, code, JoinRoom{PlayerName: name, IsSpectator: spectator})
	require.NoError(t, res.Err)
	joined := findEvent[RoomJoined](t, res.Events)
	return joined.PlayerID
}

func dispatch(d *Directory, clientID, code string, cmd Command) Result {
	return d.Dispatch(context.Background(), clientID, code, cmd)
}

func findEvent[T Event](t *testing.T, events []Event) T {
	t.Helper()
	for _, ev := range events {
		if typed, ok := ev.(T); ok {
			return typed
		}
	}
	var zero T
	t.Fatalf("expected %T in %#v", zero, events)
	return zero
}

// roomState reads the session through the actor so the read is ordered
// after every command already sent.
func roomState(t *testing.T, d *Directory, code string, read func(s *Session)) {
	t.Helper()
	require.NoError(t, d.View(context.Background(), code, read))
}
