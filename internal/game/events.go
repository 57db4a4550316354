package game

// Event is one outbound message. Like Command, the set is closed.
type Event interface {
	EventName() string
	event()
}

type RoomCreated struct {
	Code string `json:"code"`
}

type RoomFound struct {
	Code   string `json:"code"`
	Status Status `json:"status"`
	// Locked is set once the room stops taking new players.
	Locked bool   `json:"locked"`
}

// Failure is the typed rejection sent only to the requester.
type Failure struct {
	Name    string `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

type PlayerJoined struct {
	Player PublicPlayer `json:"player"`
}

type RoomJoined struct {
	Code     string         `json:"code"`
	PlayerID string         `json:"playerId"`
	Token    string         `json:"token"`
	Status   Status         `json:"status"`
	Roster   []PublicPlayer `json:"roster"`
	Palette  []PaletteEntry `json:"palette"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}

type ColorsUpdated struct {
	PlayerID string         `json:"playerId"`
	ColorID  string         `json:"colorId"`
	Palette  []PaletteEntry `json:"palette"`
}

type GameStarted struct {
	Roster    []PublicPlayer `json:"roster"`
	TimeLimit int            `json:"timeLimit"`
	MaxRounds int            `json:"maxRounds"`
}

type PlayersUpdated struct {
	Roster []PublicPlayer `json:"roster"`
}

// Topic carries the subject for everyone except the hidden role, who gets
// MaskedSubject instead.
type Topic struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
}

type StrokeAdded struct {
	Stroke Stroke `json:"stroke"`
}

type TurnAdvanced struct {
	Turn        int  `json:"turn"`
	Round       int  `json:"round"`
	DrawingDone bool `json:"drawingDone"`
}

type Strokes struct {
	Strokes []Stroke `json:"strokes"`
}

type VoteRecorded struct {
	TargetID string `json:"targetId"`
}

type VotingComplete struct {
	HiddenRoleID   string              `json:"hiddenRoleId"`
	Tally          map[string][]string `json:"tally"`
	// HiddenRoleLeft is set when the hidden-role player is no longer in the room.
	HiddenRoleLeft bool                `json:"hiddenRoleLeft,omitempty"`
}

type GameQuit struct {
	Reason string `json:"reason,omitempty"`
}

type TurnState struct {
	Turn  int `json:"turn"`
	Round int `json:"round"`
}

type Players struct {
	Roster  []PublicPlayer `json:"roster"`
	Palette []PaletteEntry `json:"palette"`
}

type RoomRejoined struct {
	Code     string         `json:"code"`
	PlayerID string         `json:"playerId,omitempty"`
	Status   Status         `json:"status"`
	Roster   []PublicPlayer `json:"roster"`
	Palette  []PaletteEntry `json:"palette"`
	Turn     int            `json:"turn"`
	Round    int            `json:"round"`
	Strokes  []Stroke       `json:"strokes"`
}

type NextRoomCreated struct {
	Code string `json:"code"`
}

func (RoomCreated) EventName() string     { return "room_created" }
func (RoomFound) EventName() string       { return "room_found" }
func (f Failure) EventName() string       { return f.Name }
func (PlayerJoined) EventName() string    { return "player_joined" }
func (RoomJoined) EventName() string      { return "room_joined" }
func (PlayerLeft) EventName() string      { return "player_left" }
func (ColorsUpdated) EventName() string   { return "colors_updated" }
func (GameStarted) EventName() string     { return "game_started" }
func (PlayersUpdated) EventName() string  { return "players_updated" }
func (Topic) EventName() string           { return "topic" }
func (StrokeAdded) EventName() string     { return "stroke_added" }
func (TurnAdvanced) EventName() string    { return "turn_advanced" }
func (Strokes) EventName() string         { return "strokes" }
func (VoteRecorded) EventName() string    { return "vote_recorded" }
func (VotingComplete) EventName() string  { return "voting_complete" }
func (GameQuit) EventName() string        { return "game_quit" }
func (TurnState) EventName() string       { return "turn" }
func (Players) EventName() string         { return "players" }
func (RoomRejoined) EventName() string    { return "room_rejoined" }
func (NextRoomCreated) EventName() string { return "next_room" }

func (RoomCreated) event()     {}
func (RoomFound) event()       {}
func (Failure) event()         {}
func (PlayerJoined) event()    {}
func (RoomJoined) event()      {}
func (PlayerLeft) event()      {}
func (ColorsUpdated) event()   {}
func (GameStarted) event()     {}
func (PlayersUpdated) event()  {}
func (Topic) event()           {}
func (StrokeAdded) event()     {}
func (TurnAdvanced) event()    {}
func (Strokes) event()         {}
func (VoteRecorded) event()    {}
func (VotingComplete) event()  {}
func (GameQuit) event()        {}
func (TurnState) event()       {}
func (Players) event()         {}
func (RoomRejoined) event()    {}
func (NextRoomCreated) event() {}

func failureFor(cmd Command, err error) Failure {
	name := cmd.failure()
	if name == "" {
		name = eventCommandFailed
	}
	return Failure{Name: name, Code: CodeOf(err), Message: publicMessage(err)}
}
