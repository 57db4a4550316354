package game

// TurnTracker holds the turn and round counters of a running game.
type TurnTracker struct {
	Turn  int `json:"turn"`
	Round int `json:"round"`
}

// Advance moves to the next turn among active players. It reports whether
// the turn wrapped around and started a new round.
func (t *TurnTracker) Advance(active int) bool {
	if active <= 0 {
		return false
	}
	t.Turn++
	if t.Turn >= active {
		t.Turn = 0
		t.Round++
		return true
	}
	return false
}

// Clamp keeps Turn below active after the roster shrinks. Running off the
// end of the roster counts as finishing the round.
func (t *TurnTracker) Clamp(active int) bool {
	if active <= 0 {
		t.Turn = 0
		return false
	}
	if t.Turn >= active {
		t.Turn = 0
		t.Round++
		return true
	}
	return false
}

// Leave adjusts the counters after the active player at index left has been
// removed and active players remain. The current drawer keeps the turn; when
// the drawer is the one leaving, the next player in order takes it.
func (t *TurnTracker) Leave(left, active int) bool {
	if left >= 0 && left < t.Turn {
		t.Turn--
	}
	return t.Clamp(active)
}

func (t *TurnTracker) Reset() {
	t.Turn = 0
	t.Round = 0
}
