package game

import "time"

// Player is a member of one room for its whole lifetime.
type Player struct {
	ID           string
	SessionCode  string
	Name         string
	TurnOrder    int
	Color        string
	IsSpectator  bool
	IsHiddenRole bool
	Vote         string
	IsReady      bool
	JoinedAt     time.Time
	// RejoinToken is sent only to the joining client and lets a new
	// connection take the player back.
	RejoinToken  string
	// ClientID is the connection currently acting as this player. It is
	// not persisted; a restored player is claimed again through rejoin.
	ClientID     string
}

// PublicPlayer is the projection of a player that is safe to send to the room.
type PublicPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TurnOrder   int    `json:"turnOrder"`
	Color       string `json:"color,omitempty"`
	IsSpectator bool   `json:"isSpectator"`
	IsReady     bool   `json:"isReady"`
	HasVoted    bool   `json:"hasVoted"`
}

func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:          p.ID,
		Name:        p.Name,
		TurnOrder:   p.TurnOrder,
		Color:       p.Color,
		IsSpectator: p.IsSpectator,
		IsReady:     p.IsReady,
		HasVoted:    p.Vote != "",
	}
}

// PlayerRegistry keeps a room's players ordered by turn order.
type PlayerRegistry struct {
	players []*Player
}

func (r *PlayerRegistry) Len() int {
	return len(r.players)
}

// NextTurnOrder is one past the highest turn order ever present, or 0 for an
// empty room. Orders are never renumbered when players leave.
func (r *PlayerRegistry) NextTurnOrder() int {
	if len(r.players) == 0 {
		return 0
	}
	highest := r.players[0].TurnOrder
	for _, p := range r.players[1:] {
		if p.TurnOrder > highest {
			highest = p.TurnOrder
		}
	}
	return highest + 1
}

func (r *PlayerRegistry) Add(p *Player) {
	idx := len(r.players)
	for i, existing := range r.players {
		if existing.TurnOrder > p.TurnOrder {
			idx = i
			break
		}
	}
	r.players = append(r.players, nil)
	copy(r.players[idx+1:], r.players[idx:])
	r.players[idx] = p
}

func (r *PlayerRegistry) Remove(id string) (*Player, bool) {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

func (r *PlayerRegistry) Get(id string) (*Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (r *PlayerRegistry) ByColor(colorID string) (*Player, bool) {
	if colorID == "" {
		return nil, false
	}
	for _, p := range r.players {
		if p.Color == colorID {
			return p, true
		}
	}
	return nil, false
}

// All returns players in turn order.
func (r *PlayerRegistry) All() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

// Active returns the non-spectators in turn order.
func (r *PlayerRegistry) Active() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if !p.IsSpectator {
			out = append(out, p)
		}
	}
	return out
}

// ActiveIndex is the position of id among the active players, or -1.
func (r *PlayerRegistry) ActiveIndex(id string) int {
	idx := 0
	for _, p := range r.players {
		if p.IsSpectator {
			continue
		}
		if p.ID == id {
			return idx
		}
		idx++
	}
	return -1
}

func (r *PlayerRegistry) ActiveIDs() []string {
	active := r.Active()
	ids := make([]string, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	return ids
}

func (r *PlayerRegistry) HiddenRole() (*Player, bool) {
	for _, p := range r.players {
		if p.IsHiddenRole {
			return p, true
		}
	}
	return nil, false
}

func (r *PlayerRegistry) Roster() []PublicPlayer {
	out := make([]PublicPlayer, len(r.players))
	for i, p := range r.players {
		out[i] = p.Public()
	}
	return out
}
