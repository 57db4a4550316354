package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// Command is one inbound request. The set is closed: every variant lives in
// this file and is handled by Directory.Dispatch or a room actor.
type Command interface {
	Name() string
	// failure names the event sent back to the requester when the command
	// is rejected, or "" when the command has none.
	failure() string
}

const eventCommandFailed = "command_failed"

type CreateRoom struct {
	MaxRounds int `json:"maxRounds"`
	TimeLimit int `json:"timeLimit"`
}

type FindRoom struct{}

type JoinRoom struct {
	PlayerName  string `json:"name"`
	IsSpectator bool   `json:"isSpectator"`
}

type LeaveRoom struct {
	PlayerID string `json:"playerId"`
}

type AssignColor struct {
	PlayerID string `json:"playerId"`
	ColorID  string `json:"colorId"`
}

type StartGame struct{}

type GetTopic struct {
	PlayerID string `json:"playerId"`
}

type SubmitStroke struct {
	StrokeData json.RawMessage `json:"strokeData"`
}

type GetStrokes struct {
	KnownCount int `json:"knownCount"`
}

type CastVote struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

type CheckVoting struct{}

type QuitGame struct{}

type GetTurn struct{}

type FetchPlayers struct{}

// RejoinRoom subscribes the client to the room again. With PlayerID and the
// token handed out on join, the client also takes that player back.
type RejoinRoom struct {
	PlayerID string `json:"playerId,omitempty"`
	Token    string `json:"token,omitempty"`
}

type HasVoted struct {
	PlayerID string `json:"playerId"`
}

type SetReady struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type NextRoom struct{}

type GetNextRoom struct{}

// expireRoom is queued by the idle sweeper. It goes through the same inbox as
// client commands.
type expireRoom struct {
	now time.Time
	ttl time.Duration
}

// viewRoom runs read against the session on the actor goroutine. read must
// not keep references to the session.
type viewRoom struct {
	read func(s *Session)
}

func (CreateRoom) Name() string   { return "create_room" }
func (FindRoom) Name() string     { return "find_room" }
func (JoinRoom) Name() string     { return "join_room" }
func (LeaveRoom) Name() string    { return "leave_room" }
func (AssignColor) Name() string  { return "assign_color" }
func (StartGame) Name() string    { return "start_game" }
func (GetTopic) Name() string     { return "get_topic" }
func (SubmitStroke) Name() string { return "submit_stroke" }
func (GetStrokes) Name() string   { return "get_strokes" }
func (CastVote) Name() string     { return "cast_vote" }
func (CheckVoting) Name() string  { return "check_voting" }
func (QuitGame) Name() string     { return "quit_game" }
func (GetTurn) Name() string      { return "get_turn" }
func (FetchPlayers) Name() string { return "fetch_players" }
func (RejoinRoom) Name() string   { return "rejoin_room" }
func (HasVoted) Name() string     { return "has_voted" }
func (SetReady) Name() string     { return "set_ready" }
func (NextRoom) Name() string     { return "next_room" }
func (GetNextRoom) Name() string  { return "get_next_room" }
func (expireRoom) Name() string   { return "expire_room" }
func (viewRoom) Name() string     { return "view_room" }

func (CreateRoom) failure() string   { return "room_create_failed" }
func (FindRoom) failure() string     { return "room_not_found" }
func (JoinRoom) failure() string     { return "join_failed" }
func (LeaveRoom) failure() string    { return "" }
func (AssignColor) failure() string  { return "color_conflict" }
func (StartGame) failure() string    { return "start_failed" }
func (GetTopic) failure() string     { return "topic_failed" }
func (SubmitStroke) failure() string { return "stroke_failed" }
func (GetStrokes) failure() string   { return "" }
func (CastVote) failure() string     { return "vote_failed" }
func (CheckVoting) failure() string  { return "" }
func (QuitGame) failure() string     { return "" }
func (GetTurn) failure() string      { return "" }
func (FetchPlayers) failure() string { return "" }
func (RejoinRoom) failure() string   { return "rejoin_failed" }
func (HasVoted) failure() string     { return "" }
func (SetReady) failure() string     { return "ready_failed" }
func (NextRoom) failure() string     { return "next_room_failed" }
func (GetNextRoom) failure() string  { return "" }
func (expireRoom) failure() string   { return "" }
func (viewRoom) failure() string     { return "" }

// DecodeCommand builds the typed command for name from a JSON payload.
func DecodeCommand(name string, payload json.RawMessage) (Command, error) {
	var cmd Command
	switch name {
	case "create_room":
		cmd = &CreateRoom{}
	case "find_room":
		cmd = &FindRoom{}
	case "join_room":
		cmd = &JoinRoom{}
	case "leave_room":
		cmd = &LeaveRoom{}
	case "assign_color":
		cmd = &AssignColor{}
	case "start_game":
		cmd = &StartGame{}
	case "get_topic":
		cmd = &GetTopic{}
	case "submit_stroke":
		cmd = &SubmitStroke{}
	case "get_strokes":
		cmd = &GetStrokes{}
	case "cast_vote":
		cmd = &CastVote{}
	case "check_voting":
		cmd = &CheckVoting{}
	case "quit_game":
		cmd = &QuitGame{}
	case "get_turn":
		cmd = &GetTurn{}
	case "fetch_players":
		cmd = &FetchPlayers{}
	case "rejoin_room":
		cmd = &RejoinRoom{}
	case "has_voted":
		cmd = &HasVoted{}
	case "set_ready":
		cmd = &SetReady{}
	case "next_room":
		cmd = &NextRoom{}
	case "get_next_room":
		cmd = &GetNextRoom{}
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrNotFound, name)
	}
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: decode %s payload: %v", ErrInvalidState, name, err)
		}
	}
	return deref(cmd), nil
}

// deref returns the value form of a decoded command so handlers can switch
// on value types only.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *CreateRoom:
		return *c
	case *FindRoom:
		return *c
	case *JoinRoom:
		return *c
	case *LeaveRoom:
		return *c
	case *AssignColor:
		return *c
	case *StartGame:
		return *c
	case *GetTopic:
		return *c
	case *SubmitStroke:
		return *c
	case *GetStrokes:
		return *c
	case *CastVote:
		return *c
	case *CheckVoting:
		return *c
	case *QuitGame:
		return *c
	case *GetTurn:
		return *c
	case *FetchPlayers:
		return *c
	case *RejoinRoom:
		return *c
	case *HasVoted:
		return *c
	case *SetReady:
		return *c
	case *NextRoom:
		return *c
	case *GetNextRoom:
		return *c
	}
	return cmd
}
