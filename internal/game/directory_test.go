package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomDefaults(t *testing.T) {
	d, rec := newTestDirectory(t, Options{DefaultMaxRounds: 3, DefaultTimeLimit: 90})
	code := createRoom(t, d, 0)

	assert.Len(t, code, roomCodeLength)
	assert.Len(t, rec.clientEvents("creator"), 1)
	roomState(t, d, code, func(s *Session) {
		assert.Equal(t, 3, s.MaxRounds)
		assert.Equal(t, 90, s.TimeLimit)
		assert.Equal(t, StatusOpen, s.Status)
		assert.Equal(t, testCategory, s.Category)
	})
}

func TestCreateRoomRejectsNegativeSettings(t *testing.T) {
	d, rec := newTestDirectory(t, Options{})
	res := dispatch(d, "c-a", "", CreateRoom{MaxRounds: -1})
	assert.True(t, errors.Is(res.Err, ErrInvalidState))

	events := rec.clientEvents("c-a")
	require.Len(t, events, 1)
	assert.Equal(t, "room_create_failed", events[0].EventName())
	assert.Zero(t, d.Len())
}

func TestCreateRoomWithoutCategories(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	d.catalog = NewStaticCatalog()
	res := dispatch(d, "c-a", "", CreateRoom{})
	require.Error(t, res.Err)
	assert.Equal(t, "room_create_failed", res.Events[0].EventName())
}

func TestCodesAreUniqueAcrossLiveRooms(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := createRoom(t, d, 1)
		require.False(t, seen[code], "code %s issued twice", code)
		seen[code] = true
	}
	assert.Equal(t, 200, d.Len())
}

func TestCreateRoomExhaustsCodes(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	d.codes.random = func(b []byte) (int, error) {
		for i := range b {
			b[i] = 0
		}
		return len(b), nil
	}
	createRoom(t, d, 1)

	res := dispatch(d, "c-a", "", CreateRoom{})
	assert.True(t, errors.Is(res.Err, ErrResourceExhausted))
	assert.Equal(t, CodeResourceExhausted, res.Events[0].(Failure).Code)
}

func TestDispatchNormalizesCode(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	d.codes.random = func(b []byte) (int, error) {
		for i := range b {
			b[i] = 0
		}
		return len(b), nil
	}
	code := createRoom(t, d, 1)
	require.Equal(t, "00000", code)

	found := findEvent[RoomFound](t, dispatch(d, "c-a", " ooOoo ", FindRoom{}).Events)
	assert.Equal(t, code, found.Code)
}

func TestSweepExpiresIdleRooms(t *testing.T) {
	d, rec := newTestDirectory(t, Options{})
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	d.now = clock.Now

	idle := createRoom(t, d, 1)
	busy := createRoom(t, d, 1)
	joinRoom(t, d, busy, "c-a", "A")

	clock.Advance(30 * time.Minute)
	require.NoError(t, dispatch(d, "c-a", busy, FetchPlayers{}).Err)
	clock.Advance(40 * time.Minute)

	d.Sweep(time.Hour)
	require.Eventually(t, func() bool { return d.Len() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := d.Lookup(busy)
	assert.True(t, ok)
	quit := rec.roomEvents(idle, "game_quit")
	require.Len(t, quit, 1)
	assert.Equal(t, "expired", quit[0].(GameQuit).Reason)

	d.Sweep(time.Hour)
	require.NoError(t, d.View(context.Background(), busy, func(*Session) {}))
	assert.Equal(t, 1, d.Len())
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	createRoom(t, d, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.RunSweeper(ctx, time.Millisecond, 0)
		close(done)
	}()
	require.Eventually(t, func() bool { return d.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func restorableSnapshot(code string) RoomSnapshot {
	palette := NewColorPool(DefaultPalette)
	_ = palette.Take("#ff6b6b", "p-a")
	_ = palette.Take("#4dabf7", "p-b")
	return RoomSnapshot{
		Session: SessionRecord{
			Code:         code,
			Status:       StatusInProgress,
			Locked:       true,
			MaxRounds:    2,
			CategoryID:   testCategory.ID,
			TurnNumber:   1,
			HiddenRoleID: "p-a",
			Palette:      palette.Slots(),
		},
		Players: []Player{
			{ID: "p-a", SessionCode: code, Name: "A", TurnOrder: 0, Color: "#ff6b6b", IsHiddenRole: true, Vote: "p-b", RejoinToken: "tok-a"},
			{ID: "p-b", SessionCode: code, Name: "B", TurnOrder: 1, Color: "#4dabf7", RejoinToken: "tok-b"},
		},
		Strokes: []Stroke{{Sequence: 1, Data: []byte(`"first"`)}},
	}
}

func TestRejoinRestoresRoomFromStore(t *testing.T) {
	store := &memStore{snapshots: map[string]RoomSnapshot{"AB12C": restorableSnapshot("AB12C")}}
	d, rec := newTestDirectory(t, Options{Store: store})

	res := dispatch(d, "c-a", "ab12c", RejoinRoom{PlayerID: "p-a", Token: "tok-a"})
	require.NoError(t, res.Err)
	rejoined := findEvent[RoomRejoined](t, res.Events)
	assert.Equal(t, "p-a", rejoined.PlayerID)
	assert.Equal(t, StatusInProgress, rejoined.Status)
	assert.Equal(t, 1, rejoined.Turn)
	require.Len(t, rejoined.Strokes, 1)
	assert.True(t, rec.isSubscribed("AB12C", "c-a"))

	topic := findEvent[Topic](t, dispatch(d, "c-a", "AB12C", GetTopic{PlayerID: "p-a"}).Events)
	assert.Equal(t, MaskedSubject, topic.Subject)

	res = dispatch(d, "c-b", "AB12C", GetTopic{PlayerID: "p-b"})
	assert.True(t, errors.Is(res.Err, ErrInvalidState), "restored players are unclaimed until rejoin")
	require.NoError(t, dispatch(d, "c-b", "AB12C", RejoinRoom{PlayerID: "p-b", Token: "tok-b"}).Err)

	res = dispatch(d, "c-b", "AB12C", AssignColor{PlayerID: "p-b", ColorID: "#ff6b6b"})
	assert.True(t, errors.Is(res.Err, ErrInvalidState))

	require.NoError(t, dispatch(d, "c-b", "AB12C", CastVote{VoterID: "p-b", TargetID: "p-a"}).Err)
	require.NoError(t, dispatch(d, "c-b", "AB12C", CheckVoting{}).Err)
	assert.Len(t, rec.roomEvents("AB12C", "voting_complete"), 1)
}

func TestRejoinIgnoresClosedRooms(t *testing.T) {
	snap := restorableSnapshot("AB12C")
	snap.Session.Status = StatusClosed
	store := &memStore{snapshots: map[string]RoomSnapshot{"AB12C": snap}}
	d, _ := newTestDirectory(t, Options{Store: store})

	res := dispatch(d, "c-a", "AB12C", RejoinRoom{})
	assert.True(t, errors.Is(res.Err, ErrNotFound))
	assert.Equal(t, "rejoin_failed", res.Events[0].EventName())
	assert.Zero(t, d.Len())

	res = dispatch(d, "c-a", "ZZZZZ", RejoinRoom{})
	assert.True(t, errors.Is(res.Err, ErrNotFound))
}

func TestOnlyRejoinRestores(t *testing.T) {
	store := &memStore{snapshots: map[string]RoomSnapshot{"AB12C": restorableSnapshot("AB12C")}}
	d, _ := newTestDirectory(t, Options{Store: store})

	res := dispatch(d, "c-a", "AB12C", GetTurn{})
	assert.True(t, errors.Is(res.Err, ErrNotFound))
	assert.Zero(t, d.Len())
}

func TestViewUnknownRoom(t *testing.T) {
	d, _ := newTestDirectory(t, Options{})
	err := d.View(context.Background(), "NOPE1", func(*Session) {})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDestroyedRoomIsNotRestored(t *testing.T) {
	store := &memStore{snapshots: map[string]RoomSnapshot{"AB12C": restorableSnapshot("AB12C")}}
	d, _ := newTestDirectory(t, Options{Store: store})
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	d.now = clock.Now

	require.NoError(t, dispatch(d, "c-a", "AB12C", RejoinRoom{PlayerID: "p-a", Token: "tok-a"}).Err)
	require.NoError(t, dispatch(d, "c-a", "AB12C", QuitGame{}).Err)
	require.Eventually(t, func() bool { return d.Len() == 0 }, time.Second, 5*time.Millisecond)

	res := dispatch(d, "c-a", "AB12C", RejoinRoom{PlayerID: "p-a", Token: "tok-a"})
	assert.True(t, errors.Is(res.Err, ErrNotFound))
	assert.Equal(t, "rejoin_failed", res.Events[0].EventName())
	res = dispatch(d, "c-a", "AB12C", FindRoom{})
	assert.True(t, errors.Is(res.Err, ErrNotFound))
	assert.Zero(t, d.Len())

	clock.Advance(2 * time.Hour)
	d.Sweep(time.Hour)
	assert.False(t, d.wasClosed("AB12C"))
}

func TestRestoredDrawingContinuesStoredSequence(t *testing.T) {
	snap := restorableSnapshot("AB12C")
	snap.Strokes = []Stroke{
		{Sequence: 1, Data: []byte(`"first"`)},
		{Sequence: 3, Data: []byte(`"third"`)},
	}
	store := &memStore{snapshots: map[string]RoomSnapshot{"AB12C": snap}}
	d, rec := newTestDirectory(t, Options{Store: store})

	require.NoError(t, dispatch(d, "c-a", "AB12C", RejoinRoom{PlayerID: "p-a", Token: "tok-a"}).Err)
	require.NoError(t, dispatch(d, "c-a", "AB12C", SubmitStroke{StrokeData: []byte(`"fourth"`)}).Err)

	added := rec.roomEvents("AB12C", "stroke_added")
	require.Len(t, added, 1)
	assert.Equal(t, 4, added[0].(StrokeAdded).Stroke.Sequence)

	got := findEvent[Strokes](t, dispatch(d, "c-a", "AB12C", GetStrokes{KnownCount: 1}).Events)
	require.Len(t, got.Strokes, 2)
	assert.Equal(t, 3, got.Strokes[0].Sequence)
	assert.Equal(t, 4, got.Strokes[1].Sequence)
}
