package game

// VoteTally records who each player voted for and whether the result has
// already been revealed for the current game.
type VoteTally struct {
	votes    map[string]string
	revealed bool
}

func NewVoteTally() *VoteTally {
	return &VoteTally{votes: make(map[string]string)}
}

// Record overwrites any earlier vote by voterID.
func (v *VoteTally) Record(voterID, targetID string) {
	v.votes[voterID] = targetID
}

func (v *VoteTally) VoteOf(voterID string) (string, bool) {
	target, ok := v.votes[voterID]
	return target, ok
}

// Forget drops the vote cast by playerID and every vote cast for them. It
// returns the voters whose votes were dropped because they targeted playerID.
func (v *VoteTally) Forget(playerID string) []string {
	delete(v.votes, playerID)
	var cleared []string
	for voter, target := range v.votes {
		if target == playerID {
			delete(v.votes, voter)
			cleared = append(cleared, voter)
		}
	}
	return cleared
}

// IsComplete reports whether every voter has a recorded vote.
func (v *VoteTally) IsComplete(voters []string) bool {
	if len(voters) == 0 {
		return false
	}
	for _, id := range voters {
		if _, ok := v.votes[id]; !ok {
			return false
		}
	}
	return true
}

// Reveal groups voters by target the first time voting is complete. Later
// calls return ok=false so the result is only announced once per game.
func (v *VoteTally) Reveal(voters []string) (map[string][]string, bool) {
	if v.revealed || !v.IsComplete(voters) {
		return nil, false
	}
	v.revealed = true
	tally := make(map[string][]string)
	for _, voter := range voters {
		target := v.votes[voter]
		tally[target] = append(tally[target], voter)
	}
	return tally, true
}

func (v *VoteTally) Revealed() bool {
	return v.revealed
}

func (v *VoteTally) Reset() {
	v.votes = make(map[string]string)
	v.revealed = false
}
