package game

import (
	"context"
	"time"
)

// EntityKind names what a Store call is about.
type EntityKind string

const (
	KindSession EntityKind = "session"
	KindPlayer  EntityKind = "player"
	KindStroke  EntityKind = "stroke"
)

// Store is the durable sink. Implementations return an error wrapping
// ErrUnavailable when the backend cannot be reached in time.
//
// Save accepts SessionRecord, Player and StrokeRecord values. Delete takes a
// session code or player id. Load(KindSession, code) returns a RoomSnapshot.
type Store interface {
	Save(ctx context.Context, kind EntityKind, entity any) error
	Load(ctx context.Context, kind EntityKind, id string) (any, error)
	Delete(ctx context.Context, kind EntityKind, id string) error
}

type SessionRecord struct {
	Code            string
	Status          Status
	Locked          bool
	MaxRounds       int
	TimeLimit       int
	CategoryID      string
	RoundNumber     int
	TurnNumber      int
	Palette         []ColorSlot
	NextSessionCode string
	HiddenRoleID    string
	Revealed        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type StrokeRecord struct {
	SessionCode string
	Stroke      Stroke
}

// RoomSnapshot is everything needed to bring a room back into memory.
type RoomSnapshot struct {
	Session SessionRecord
	Players []Player
	Strokes []Stroke
}
