package game

import "fmt"

// DefaultPalette is used when no palette is configured.
var DefaultPalette = []string{
	"#ff6b6b",
	"#4dabf7",
	"#51cf66",
	"#ffa94d",
	"#ffd43b",
	"#845ef7",
	"#20c997",
	"#e64980",
}

// ColorSlot is one palette entry.
type ColorSlot struct {
	ColorID string `json:"colorId"`
	TakenBy string `json:"-"`
}

// PaletteEntry is the client view of a palette slot.
type PaletteEntry struct {
	ColorID string `json:"colorId"`
	Taken   bool   `json:"taken"`
}

// ColorPool tracks which colors of a room's palette are held and by whom.
type ColorPool struct {
	slots []ColorSlot
}

func NewColorPool(palette []string) *ColorPool {
	pool := &ColorPool{slots: make([]ColorSlot, 0, len(palette))}
	seen := make(map[string]struct{}, len(palette))
	for _, id := range palette {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		pool.slots = append(pool.slots, ColorSlot{ColorID: id})
	}
	return pool
}

func (p *ColorPool) Size() int {
	return len(p.slots)
}

func (p *ColorPool) find(colorID string) int {
	for i := range p.slots {
		if p.slots[i].ColorID == colorID {
			return i
		}
	}
	return -1
}

// Take assigns colorID to playerID and releases whatever that player held before.
func (p *ColorPool) Take(colorID, playerID string) error {
	idx := p.find(colorID)
	if idx < 0 {
		return fmt.Errorf("%w: color %s", ErrNotFound, colorID)
	}
	holder := p.slots[idx].TakenBy
	if holder == playerID {
		return nil
	}
	if holder != "" {
		return fmt.Errorf("%w: color %s already taken", ErrConflict, colorID)
	}
	p.Release(playerID)
	p.slots[idx].TakenBy = playerID
	return nil
}

// Release frees every slot held by playerID.
func (p *ColorPool) Release(playerID string) {
	for i := range p.slots {
		if p.slots[i].TakenBy == playerID {
			p.slots[i].TakenBy = ""
		}
	}
}

// Holder returns who holds colorID, if anyone.
func (p *ColorPool) Holder(colorID string) (string, bool) {
	idx := p.find(colorID)
	if idx < 0 || p.slots[idx].TakenBy == "" {
		return "", false
	}
	return p.slots[idx].TakenBy, true
}

// TakeNext pops the last free slot for playerID.
func (p *ColorPool) TakeNext(playerID string) (string, error) {
	for i := len(p.slots) - 1; i >= 0; i-- {
		if p.slots[i].TakenBy == "" {
			p.slots[i].TakenBy = playerID
			return p.slots[i].ColorID, nil
		}
	}
	return "", fmt.Errorf("%w: palette has no free colors", ErrResourceExhausted)
}

func (p *ColorPool) Entries() []PaletteEntry {
	out := make([]PaletteEntry, len(p.slots))
	for i, slot := range p.slots {
		out[i] = PaletteEntry{ColorID: slot.ColorID, Taken: slot.TakenBy != ""}
	}
	return out
}

// Slots returns a copy of the raw slots including holders.
func (p *ColorPool) Slots() []ColorSlot {
	out := make([]ColorSlot, len(p.slots))
	copy(out, p.slots)
	return out
}

func restoreColorPool(slots []ColorSlot) *ColorPool {
	pool := &ColorPool{slots: make([]ColorSlot, len(slots))}
	copy(pool.slots, slots)
	return pool
}
