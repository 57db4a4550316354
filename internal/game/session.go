package game

import (
	"time"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// Session is the in-memory state of one room. It is owned by exactly one
// Actor and must only be touched from that actor's goroutine.
type Session struct {
	Code            string
	Status          Status
	Locked          bool
	MaxRounds       int
	TimeLimit       int
	Category        Category
	Turns           TurnTracker
	NextSessionCode string
	HiddenRoleID    string
	CreatedAt       time.Time
	LastActive      time.Time

	Players PlayerRegistry
	Colors  *ColorPool
	Votes   *VoteTally
	Drawing DrawingLog
}

func newSession(code string, maxRounds, timeLimit int, category Category, palette []string, now time.Time) *Session {
	return &Session{
		Code:       code,
		Status:     StatusOpen,
		MaxRounds:  maxRounds,
		TimeLimit:  timeLimit,
		Category:   category,
		CreatedAt:  now,
		LastActive: now,
		Colors:     NewColorPool(palette),
		Votes:      NewVoteTally(),
	}
}

// ActiveCount is the number of players that take drawing turns.
func (s *Session) ActiveCount() int {
	return len(s.Players.Active())
}

// DrawingDone reports whether every round has been played.
func (s *Session) DrawingDone() bool {
	return s.Turns.Round >= s.MaxRounds
}

func (s *Session) record() SessionRecord {
	return SessionRecord{
		Code:            s.Code,
		Status:          s.Status,
		Locked:          s.Locked,
		MaxRounds:       s.MaxRounds,
		TimeLimit:       s.TimeLimit,
		CategoryID:      s.Category.ID,
		RoundNumber:     s.Turns.Round,
		TurnNumber:      s.Turns.Turn,
		Palette:         s.Colors.Slots(),
		NextSessionCode: s.NextSessionCode,
		HiddenRoleID:    s.HiddenRoleID,
		Revealed:        s.Votes.Revealed(),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.LastActive,
	}
}

// sessionFromSnapshot rebuilds a room from its durable copy.
func sessionFromSnapshot(snap RoomSnapshot, category Category, now time.Time) *Session {
	rec := snap.Session
	s := &Session{
		Code:            rec.Code,
		Status:          rec.Status,
		Locked:          rec.Locked,
		MaxRounds:       rec.MaxRounds,
		TimeLimit:       rec.TimeLimit,
		Category:        category,
		Turns:           TurnTracker{Turn: rec.TurnNumber, Round: rec.RoundNumber},
		NextSessionCode: rec.NextSessionCode,
		HiddenRoleID:    rec.HiddenRoleID,
		CreatedAt:       rec.CreatedAt,
		LastActive:      now,
		Colors:          restoreColorPool(rec.Palette),
		Votes:           NewVoteTally(),
	}
	for i := range snap.Players {
		p := snap.Players[i]
		s.Players.Add(&p)
		if p.Vote != "" {
			s.Votes.Record(p.ID, p.Vote)
		}
	}
	s.Votes.revealed = rec.Revealed
	s.Drawing.restore(snap.Strokes)
	return s
}
